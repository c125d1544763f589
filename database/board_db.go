package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sync"

	"github.com/mattn/go-sqlite3"

	"github.com/zvonler/chanspy/boards"
	"github.com/zvonler/chanspy/descriptor"
	"github.com/zvonler/chanspy/model"
	"github.com/zvonler/chanspy/utils"
)

const driverName = "sqlite3_regex"

var registerDriver sync.Once

type SiteID int64

// BoardDB persists boards in sqlite. It is the Loader and Persister of the
// board store.
type BoardDB struct {
	Filename         string
	DB               *sql.DB
	insertSiteStmt   string
	upsertBoardStmt  string
	selectBoardsStmt string
	searchBoardsStmt string
	selectSitesStmt  string
}

var (
	_ boards.Loader    = (*BoardDB)(nil)
	_ boards.Persister = (*BoardDB)(nil)
)

func regex(re, s string) (bool, error) {
	return regexp.MatchString(re, s)
}

func OpenBoardDB(path string) (bdb *BoardDB, err error) {
	registerDriver.Do(func() {
		sql.Register(driverName,
			&sqlite3.SQLiteDriver{
				ConnectHook: func(conn *sqlite3.SQLiteConn) error {
					return conn.RegisterFunc("regexp", regex, true)
				},
			})
	})

	var db *sql.DB
	if db, err = sql.Open(driverName, path); err != nil {
		return
	}
	bdb = &BoardDB{Filename: path, DB: db}
	if err = bdb.initTables(); err != nil {
		db.Close()
		return nil, err
	}
	bdb.initSQLStatements()
	return
}

// OpenExistingBoardDB is OpenBoardDB for a file that must already exist.
func OpenExistingBoardDB(path string) (*BoardDB, error) {
	exists, err := utils.PathExists(path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("Database %q does not exist", path)
	}
	return OpenBoardDB(path)
}

func (bdb *BoardDB) Close() error {
	return bdb.DB.Close()
}

type RowsReceiver func(*sql.Rows) error

func (bdb *BoardDB) forEachRow(ctx context.Context, receiver RowsReceiver, stmt string, params ...any) error {
	rows, err := bdb.DB.QueryContext(ctx, stmt, params...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := receiver(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (bdb *BoardDB) Sites(ctx context.Context) (names []string, err error) {
	err = bdb.forEachRow(ctx,
		func(rows *sql.Rows) error {
			var name string
			if err := rows.Scan(&name); err != nil {
				return err
			}
			names = append(names, name)
			return nil
		},
		bdb.selectSitesStmt)
	return
}

// SaveBoards upserts boards in one transaction.
func (bdb *BoardDB) SaveBoards(ctx context.Context, boards []model.ChanBoard) error {
	tx, err := bdb.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	siteIds := make(map[string]SiteID)
	for _, b := range boards {
		siteId, ok := siteIds[b.SiteName()]
		if !ok {
			if err := tx.QueryRowContext(ctx, bdb.insertSiteStmt, b.SiteName()).Scan(&siteId); err != nil {
				return fmt.Errorf("saving site %q: %w", b.SiteName(), err)
			}
			siteIds[b.SiteName()] = siteId
		}

		if _, err := tx.ExecContext(ctx, bdb.upsertBoardStmt,
			siteId, b.BoardCode(), b.Active, b.Order, b.Name, b.PerPage, b.Pages,
			b.MaxFileSize, b.MaxWebmSize, b.MaxCommentChars, b.BumpLimit, b.ImageLimit,
			b.Cooldowns.Threads, b.Cooldowns.Replies, b.Cooldowns.Images, b.CustomSpoilers,
			b.Description, b.WorkSafe, b.Spoilers, b.UserIDs, b.CodeTags,
			b.PreuploadCaptcha, b.CountryFlags, b.MathTags); err != nil {
			return fmt.Errorf("saving board %v: %w", b.Descriptor, err)
		}
	}
	return tx.Commit()
}

// LoadBoards returns every stored board with descriptors from reg.
func (bdb *BoardDB) LoadBoards(ctx context.Context, reg *descriptor.Registry) ([]model.ChanBoard, error) {
	return bdb.queryBoards(ctx, reg, bdb.selectBoardsStmt)
}

// SearchBoards returns the boards of site whose code or name matches the
// regular expression pattern.
func (bdb *BoardDB) SearchBoards(ctx context.Context, reg *descriptor.Registry, site, pattern string) ([]model.ChanBoard, error) {
	if _, err := regexp.Compile(pattern); err != nil {
		return nil, fmt.Errorf("bad pattern: %w", err)
	}
	return bdb.queryBoards(ctx, reg, bdb.searchBoardsStmt, site, pattern, pattern)
}

func (bdb *BoardDB) queryBoards(ctx context.Context, reg *descriptor.Registry, stmt string, params ...any) (res []model.ChanBoard, err error) {
	err = bdb.forEachRow(ctx,
		func(rows *sql.Rows) error {
			var (
				siteName, code string
				b              model.ChanBoard
			)
			if err := rows.Scan(&siteName, &code, &b.Active, &b.Order, &b.Name, &b.PerPage, &b.Pages,
				&b.MaxFileSize, &b.MaxWebmSize, &b.MaxCommentChars, &b.BumpLimit, &b.ImageLimit,
				&b.Cooldowns.Threads, &b.Cooldowns.Replies, &b.Cooldowns.Images, &b.CustomSpoilers,
				&b.Description, &b.WorkSafe, &b.Spoilers, &b.UserIDs, &b.CodeTags,
				&b.PreuploadCaptcha, &b.CountryFlags, &b.MathTags); err != nil {
				return err
			}
			bd, err := reg.BoardDescriptor(siteName, code)
			if err != nil {
				return fmt.Errorf("stored board %s/%s: %w", siteName, code, err)
			}
			b.Descriptor = bd
			res = append(res, b)
			return nil
		},
		stmt, params...)
	return
}

func (bdb *BoardDB) initTables() error {
	schema := `
CREATE TABLE IF NOT EXISTS site (
	id INTEGER NOT NULL PRIMARY KEY,
	name TEXT UNIQUE
);

CREATE TABLE IF NOT EXISTS board (
	id INTEGER NOT NULL PRIMARY KEY,
	site_id INTEGER NOT NULL,
	code TEXT NOT NULL,
	active INTEGER NOT NULL DEFAULT 0,
	display_order INTEGER NOT NULL DEFAULT 0,
	name TEXT,
	per_page INTEGER,
	pages INTEGER,
	max_file_size INTEGER,
	max_webm_size INTEGER,
	max_comment_chars INTEGER,
	bump_limit INTEGER,
	image_limit INTEGER,
	cooldown_threads INTEGER,
	cooldown_replies INTEGER,
	cooldown_images INTEGER,
	custom_spoilers INTEGER,
	description TEXT,
	work_safe INTEGER,
	spoilers INTEGER,
	user_ids INTEGER,
	code_tags INTEGER,
	preupload_captcha INTEGER,
	country_flags INTEGER,
	math_tags INTEGER,

	UNIQUE(site_id, code)
);
`
	if _, err := bdb.DB.Exec(schema); err != nil {
		return fmt.Errorf("loading schema: %w", err)
	}
	return nil
}

func (bdb *BoardDB) initSQLStatements() {
	bdb.insertSiteStmt = `
		INSERT INTO site
			(name)
		VALUES
			(?)
		ON CONFLICT DO UPDATE SET
			name = name
		RETURNING id`

	bdb.upsertBoardStmt = `
		INSERT INTO board
			(site_id, code, active, display_order, name, per_page, pages,
			 max_file_size, max_webm_size, max_comment_chars, bump_limit, image_limit,
			 cooldown_threads, cooldown_replies, cooldown_images, custom_spoilers,
			 description, work_safe, spoilers, user_ids, code_tags,
			 preupload_captcha, country_flags, math_tags)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(site_id, code) DO UPDATE SET
			active = excluded.active,
			display_order = excluded.display_order,
			name = excluded.name,
			per_page = excluded.per_page,
			pages = excluded.pages,
			max_file_size = excluded.max_file_size,
			max_webm_size = excluded.max_webm_size,
			max_comment_chars = excluded.max_comment_chars,
			bump_limit = excluded.bump_limit,
			image_limit = excluded.image_limit,
			cooldown_threads = excluded.cooldown_threads,
			cooldown_replies = excluded.cooldown_replies,
			cooldown_images = excluded.cooldown_images,
			custom_spoilers = excluded.custom_spoilers,
			description = excluded.description,
			work_safe = excluded.work_safe,
			spoilers = excluded.spoilers,
			user_ids = excluded.user_ids,
			code_tags = excluded.code_tags,
			preupload_captcha = excluded.preupload_captcha,
			country_flags = excluded.country_flags,
			math_tags = excluded.math_tags`

	columns := `
			s.name, b.code, b.active, b.display_order, b.name, b.per_page, b.pages,
			b.max_file_size, b.max_webm_size, b.max_comment_chars, b.bump_limit, b.image_limit,
			b.cooldown_threads, b.cooldown_replies, b.cooldown_images, b.custom_spoilers,
			b.description, b.work_safe, b.spoilers, b.user_ids, b.code_tags,
			b.preupload_captcha, b.country_flags, b.math_tags`

	bdb.selectBoardsStmt = `
		SELECT` + columns + `
		FROM
			site s, board b
		WHERE
			s.id = b.site_id
		ORDER BY
			s.name, b.display_order, b.code`

	bdb.searchBoardsStmt = `
		SELECT` + columns + `
		FROM
			site s, board b
		WHERE
			    s.id = b.site_id
			AND s.name = ?
			AND (b.code REGEXP ? OR b.name REGEXP ?)
		ORDER BY
			b.display_order, b.code`

	bdb.selectSitesStmt = `
		SELECT name FROM site ORDER BY name`
}
