// Package all registers every built-in storage backend: postgres, mssql,
// mysql and sqlite. Import it for side effects from the wiring layer:
//
//	import _ "drgetl/internal/storage/all"
package all

import (
	_ "drgetl/internal/storage/mssql"
	_ "drgetl/internal/storage/mysql"
	_ "drgetl/internal/storage/postgres"
	_ "drgetl/internal/storage/sqlite"
)
