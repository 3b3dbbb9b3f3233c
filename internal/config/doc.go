// Package config loads gogov's configuration.
//
// Configuration comes from gogov.json or gogov.toml, then environment
// overrides, and is validated before use. Every field has a default, so a
// missing file is not an error unless one was asked for explicitly.
//
// # Configuration File Structure
//
//	{
//	  "server": {
//	    "addr": ":8080",
//	    "readTimeout": "10s",
//	    "shutdownTimeout": "5s"
//	  },
//	  "search": {
//	    "debounce": "500ms",
//	    "defaultRows": 10,
//	    "fetchTimeout": "5s"
//	  },
//	  "directory": {
//	    "driver": "sqlite",
//	    "path": "gogov.db"
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  }
//	}
//
// # Environment
//
// GOGOV_ADDR, GOGOV_DIRECTORY_DRIVER, GOGOV_DIRECTORY_DSN,
// GOGOV_DIRECTORY_PATH, GOGOV_DIRECTORY_URL, GOGOV_LOG_LEVEL and
// GOGOV_LOG_FORMAT override the matching fields.
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	fmt.Println("Listening on", cfg.Server.Addr)
package config
