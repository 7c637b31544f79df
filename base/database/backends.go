package database

import (
	// Register the storage engines.
	_ "github.com/safing/recorddb/base/database/storage/mongo"
	_ "github.com/safing/recorddb/base/database/storage/mysql"
	_ "github.com/safing/recorddb/base/database/storage/sqlite"
)
