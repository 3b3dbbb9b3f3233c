// Package errors provides coded, actionable errors for gogov's boundaries:
// configuration loading, directory backends, search requests, the live
// protocol and the command line.
//
// Library packages return plain wrapped errors. A boundary converts them with
// FromError so that the CLI can print a code, an explanation and a hint:
//
//	db, err := directory.OpenSQLite(ctx, path)
//	if err != nil {
//	    return errors.FromError(err, errors.CodeDirectoryOpen).
//	        WithSuggestion("Check directory.dsn in gogov.json")
//	}
//
// Codes are grouped by hundreds:
//   - E1xx: configuration
//   - E2xx: directory and storage
//   - E3xx: search
//   - E4xx: live protocol and remote API
//   - E5xx: command line
package errors
