package cli

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/specbook/pkg/api"
	"github.com/platinummonkey/specbook/pkg/catalog"
	"github.com/platinummonkey/specbook/pkg/model"
	"github.com/platinummonkey/specbook/pkg/observability"
	"github.com/platinummonkey/specbook/pkg/publish"
	"github.com/platinummonkey/specbook/pkg/storage"
	"github.com/platinummonkey/specbook/pkg/storage/sqlstore"
	"github.com/platinummonkey/specbook/pkg/swagger"
)

const listing = "GET\t/restapi/{version}/account/~\tGet Account\tNo\t\t\t\t\t\tBasic\tNormal\n" +
	"PUT\t/restapi/{version}/account/~\tUpdate Account\tNo\t\t\t\t\t\tBasic\tNormal\n"

type stubPublisher struct{}

func (stubPublisher) Publish(ctx context.Context, specID int64) ([]*publish.Result, error) {
	return []*publish.Result{
		{SpecificationID: specID, Key: "specs/Billing/1.0/swagger.json", Size: 120, Checksum: "abc"},
	}, nil
}

type testEnv struct {
	server *httptest.Server
	svc    *catalog.Service
	spec   *model.Specification
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	quietLogger(t)

	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, sqlstore.Migrate(context.Background(), db, sqlstore.SQLite))

	logger := observability.NewLogger(observability.ErrorLevel, &bytes.Buffer{})
	svc := catalog.NewService(catalog.DefaultConfig(), sqlstore.NewWithDB(db, sqlstore.SQLite), nil, logger, nil)
	srv := httptest.NewServer(api.NewServer(svc, api.Options{Logger: logger, Publisher: stubPublisher{}}))
	t.Cleanup(srv.Close)

	spec := &model.Specification{Title: "Billing", Version: "1.0", Host: "api.example.com", BasePath: "/restapi", Schemes: "https"}
	require.NoError(t, svc.CreateSpecification(context.Background(), spec))

	return &testEnv{server: srv, svc: svc, spec: spec}
}

func (e *testEnv) specArg() string {
	return strconv.FormatInt(e.spec.ID, 10)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestImportCommand(t *testing.T) {
	env := newTestEnv(t)
	out := captureStdout(t)
	file := writeFile(t, "endpoints.tsv", listing)

	err := runImport([]string{"-spec", env.specArg(), "-file", file, "-server", env.server.URL})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Imported 2 rows into specification")
	assert.Contains(t, out.String(), "1 paths created, 2 verbs created")

	paths, err := env.svc.ListPaths(context.Background(), env.spec.ID, storage.Asc("uri"))
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, "/restapi/v1.0/account/{accountId}", paths[0].URI)
}

func TestImportCommand_Errors(t *testing.T) {
	env := newTestEnv(t)

	t.Run("missing flags", func(t *testing.T) {
		err := runImport([]string{"-server", env.server.URL})
		assert.EqualError(t, err, "spec and file are required")
	})

	t.Run("missing file", func(t *testing.T) {
		err := runImport([]string{"-spec", env.specArg(), "-file", filepath.Join(t.TempDir(), "absent.tsv"), "-server", env.server.URL})
		assert.ErrorContains(t, err, "failed to read")
	})

	t.Run("unknown specification", func(t *testing.T) {
		file := writeFile(t, "endpoints.tsv", listing)
		err := runImport([]string{"-spec", "999", "-file", file, "-server", env.server.URL})
		assert.ErrorContains(t, err, "404")
	})
}

func TestWatchFile(t *testing.T) {
	quietLogger(t)
	file := writeFile(t, "endpoints.tsv", "")

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan struct{}, 16)
	done := make(chan error, 1)
	go func() {
		done <- watchFile(ctx, file, 20*time.Millisecond, func() { changes <- struct{}{} })
	}()

	assert.Eventually(t, func() bool {
		require.NoError(t, os.WriteFile(file, []byte(listing), 0o600))
		select {
		case <-changes:
			return true
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	// unrelated files in the same directory are ignored
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(file), "other.tsv"), []byte("x"), 0o600))
	select {
	case <-changes:
		t.Fatal("change reported for another file")
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestExportCommand(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.svc.CreatePath(context.Background(), &model.Path{SpecificationID: env.spec.ID, URI: "/restapi/v1.0/account"}))

	t.Run("json to file", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "swagger.json")
		err := runExport([]string{"-spec", env.specArg(), "-out", out, "-server", env.server.URL})
		require.NoError(t, err)

		raw, err := os.ReadFile(out)
		require.NoError(t, err)
		var doc map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &doc))
		assert.Equal(t, "2.0", doc["swagger"])
	})

	t.Run("yaml to stdout", func(t *testing.T) {
		stdoutBuf := captureStdout(t)
		err := runExport([]string{"-spec", env.specArg(), "-format", "YAML", "-editions", "Basic,Advanced", "-server", env.server.URL})
		require.NoError(t, err)
		assert.Contains(t, stdoutBuf.String(), "swagger: \"2.0\"")
	})

	t.Run("bad format", func(t *testing.T) {
		err := runExport([]string{"-spec", env.specArg(), "-format", "xml", "-server", env.server.URL})
		assert.ErrorContains(t, err, "unsupported export format")
	})
}

func TestInspectCommand(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	path := &model.Path{SpecificationID: env.spec.ID, URI: "/restapi/v1.0/account/{accountId}"}
	require.NoError(t, env.svc.CreatePath(ctx, path))
	require.NoError(t, env.svc.CreateVerb(ctx, env.spec.ID, &model.Verb{
		PathID: path.ID, Method: "GET", Name: "Get Account", Visibility: "Basic", Status: "Normal",
	}))

	t.Run("from server", func(t *testing.T) {
		out := captureStdout(t)
		err := runInspect([]string{"-spec", env.specArg(), "-server", env.server.URL})
		require.NoError(t, err)
		assert.Contains(t, out.String(), "Billing 1.0")
		assert.Contains(t, out.String(), "Paths: 1  Operations: 1")
		assert.Contains(t, out.String(), "GET     /restapi/v1.0/account/{accountId}  Get Account")
	})

	t.Run("yaml file to openapi3", func(t *testing.T) {
		body, err := env.svc.Export(ctx, env.spec.ID, nil, swagger.FormatYAML)
		require.NoError(t, err)
		file := writeFile(t, "swagger.yaml", string(body))

		out := captureStdout(t)
		require.NoError(t, runInspect([]string{"-file", file, "-openapi3"}))

		var v3 map[string]interface{}
		require.NoError(t, json.Unmarshal(out.Bytes(), &v3))
		assert.Contains(t, v3["openapi"], "3.")
		paths := v3["paths"].(map[string]interface{})
		assert.Contains(t, paths, "/restapi/v1.0/account/{accountId}")
	})

	t.Run("not swagger", func(t *testing.T) {
		file := writeFile(t, "openapi.json", `{"openapi": "3.0.0"}`)
		err := runInspect([]string{"-file", file})
		assert.ErrorContains(t, err, "not a Swagger 2.0 document")
	})

	t.Run("no source", func(t *testing.T) {
		assert.EqualError(t, runInspect(nil), "file or spec is required")
	})
}

func TestPublishCommand(t *testing.T) {
	env := newTestEnv(t)
	out := captureStdout(t)

	err := runPublish([]string{"-spec", env.specArg(), "-server", env.server.URL})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "specs/Billing/1.0/swagger.json\t120 bytes\tabc")
	assert.Contains(t, out.String(), fmt.Sprintf("Published specification %d (1 objects)", env.spec.ID))
}

func TestMigrateCommand(t *testing.T) {
	quietLogger(t)
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on", filepath.Join(t.TempDir(), "specbook.db"))

	require.NoError(t, runMigrate([]string{"-driver", "sqlite3", "-dsn", dsn}))
	// a second run is a no-op
	require.NoError(t, runMigrate([]string{"-driver", "sqlite3", "-dsn", dsn}))

	db, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM specifications").Scan(&count))
	assert.Zero(t, count)

	err = runMigrate([]string{"-driver", "mysql", "-dsn", dsn})
	assert.Error(t, err)
}
