// Package cli provides the Specbook command-line interface.
//
// # Overview
//
// This package implements the `specbook-cli` tool for loading endpoint
// listings into a running catalog, downloading and inspecting Swagger
// documents, triggering publication and preparing a database.
//
// # Commands
//
// import: Load a tab-separated endpoint listing into a specification
//
//	specbook-cli import \
//		--spec 3 \
//		--file ./endpoints.tsv
//
// Re-import on every save:
//
//	specbook-cli import --spec 3 --file ./endpoints.tsv --watch --delay 1s
//
// export: Download the Swagger 2.0 document
//
//	specbook-cli export \
//		--spec 3 \
//		--format yaml \
//		--editions Basic,Advanced \
//		--out ./swagger.yaml
//
// inspect: Summarize a document from a file or the server
//
//	specbook-cli inspect --file ./swagger.yaml
//	specbook-cli inspect --spec 3 --openapi3 --validate
//
// publish: Upload the rendered documents to the configured bucket
//
//	specbook-cli publish --spec 3
//
// migrate: Create any missing tables
//
//	specbook-cli migrate --driver postgres --dsn "postgres://localhost/specbook"
//
// # Configuration
//
// Server URL:
//
//	specbook-cli export --server https://specbook.example.com --spec 3
//
// The migrate command reads SPECBOOK_DB_DRIVER and SPECBOOK_DB_DSN when its
// flags are not given. SPECBOOK_LOG_LEVEL sets the log level; logs go to
// stderr and command output to stdout.
//
// # Related Packages
//
//   - pkg/api: The HTTP API the commands call
//   - pkg/importer: Listing format and URI rewriting
//   - pkg/storage/sqlstore: Schema used by migrate
package cli
