package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"github.com/sheetdash/sheetdash/internal/utils"
	"github.com/sheetdash/sheetdash/pkg/auth"
	"github.com/sheetdash/sheetdash/pkg/cache"
	"github.com/sheetdash/sheetdash/pkg/refresh"
	"github.com/sheetdash/sheetdash/pkg/sheets"
	"github.com/sheetdash/sheetdash/pkg/storage"
)

// app wires storage, session, cache and scheduler together. One app
// instance exists per command invocation; the session state and cache
// snapshot inside it are the process-wide singletons.
type app struct {
	db       *storage.DB
	lock     *utils.DBLock
	session  *auth.SessionManager
	identity *auth.IdentityStore
	cache    *cache.Cache
	sched    *refresh.Scheduler
}

func newApp() (*app, error) {
	dbPath, _ := rootCmd.PersistentFlags().GetString("dbpath")

	lock, err := utils.NewDBLock(dbPath)
	if err != nil {
		return nil, err
	}
	if err := lock.Lock(); err != nil {
		return nil, err
	}

	absPath, err := utils.GetAbsDBPath(dbPath)
	if err != nil {
		lock.Unlock()
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		lock.Unlock()
		return nil, err
	}

	db, err := storage.Open(absPath)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("opening local database: %w", err)
	}

	session := auth.NewSessionManager(auth.Config{
		ClientID:     viper.GetString("google.clientid"),
		ClientSecret: viper.GetString("google.clientsecret"),
		RedirectURI:  viper.GetString("google.redirecturi"),
	}, auth.NewCredentialStore(db))

	recordCache := cache.New(session, sheets.NewClient(), cache.Source{
		SpreadsheetID: viper.GetString("sheet.id"),
		SheetName:     viper.GetString("sheet.name"),
		Range:         viper.GetString("sheet.range"),
	}, viper.GetDuration("cache.ttl"))

	sched := refresh.New(refresh.Config{
		Session:  session,
		Cache:    recordCache,
		Interval: viper.GetDuration("refresh.interval"),
		Log:      utils.Log,
	})

	return &app{
		db:       db,
		lock:     lock,
		session:  session,
		identity: auth.NewIdentityStore(db),
		cache:    recordCache,
		sched:    sched,
	}, nil
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.lock != nil {
		a.lock.Unlock()
	}
}
