package sqlstore

import "fmt"

// dialect carries the per-driver SQL that differs between MySQL and SQLite.
type dialect struct {
	driver       string
	schema       []string
	insertIgnore string
}

var mysqlDialect = dialect{
	driver: "mysql",
	schema: []string{
		"CREATE TABLE IF NOT EXISTS `users` (" +
			"`user_id` VARCHAR(64) NOT NULL PRIMARY KEY," +
			"`user_name` VARCHAR(255) NOT NULL," +
			"`created_at` DATETIME(6) NOT NULL" +
			") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
		"CREATE TABLE IF NOT EXISTS `session` (" +
			"`rid` BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY," +
			"`session_id` VARCHAR(64) NOT NULL," +
			"`user_id` VARCHAR(64) NOT NULL," +
			"`role` VARCHAR(16) NOT NULL," +
			"`content` MEDIUMTEXT NOT NULL," +
			"`created_at` DATETIME(6) NOT NULL," +
			"KEY `idx_session_session_rid` (`session_id`, `rid`)," +
			"CONSTRAINT `chk_session_role` CHECK (`role` IN ('user', 'assistant'))" +
			") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
		"CREATE TABLE IF NOT EXISTS `tokens` (" +
			"`id` SMALLINT NOT NULL PRIMARY KEY DEFAULT 1," +
			"`token_count` BIGINT NOT NULL DEFAULT 0" +
			") ENGINE=InnoDB",
		"INSERT IGNORE INTO `tokens` (`id`, `token_count`) VALUES (1, 0)",
	},
	insertIgnore: "INSERT IGNORE",
}

var sqliteDialect = dialect{
	driver: "sqlite",
	schema: []string{
		"CREATE TABLE IF NOT EXISTS `users` (" +
			"`user_id` TEXT NOT NULL PRIMARY KEY," +
			"`user_name` TEXT NOT NULL," +
			"`created_at` TIMESTAMP NOT NULL" +
			")",
		"CREATE TABLE IF NOT EXISTS `session` (" +
			"`rid` INTEGER PRIMARY KEY AUTOINCREMENT," +
			"`session_id` TEXT NOT NULL," +
			"`user_id` TEXT NOT NULL," +
			"`role` TEXT NOT NULL CHECK (`role` IN ('user', 'assistant'))," +
			"`content` TEXT NOT NULL," +
			"`created_at` TIMESTAMP NOT NULL" +
			")",
		"CREATE INDEX IF NOT EXISTS `idx_session_session_rid` ON `session` (`session_id`, `rid`)",
		"CREATE TABLE IF NOT EXISTS `tokens` (" +
			"`id` INTEGER NOT NULL PRIMARY KEY DEFAULT 1 CHECK (`id` = 1)," +
			"`token_count` INTEGER NOT NULL DEFAULT 0" +
			")",
		"INSERT OR IGNORE INTO `tokens` (`id`, `token_count`) VALUES (1, 0)",
	},
	insertIgnore: "INSERT OR IGNORE",
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case "mysql":
		return mysqlDialect, nil
	case "sqlite":
		return sqliteDialect, nil
	default:
		return dialect{}, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}
}
