package consts

// Permissions for the files and directories ytbridge creates.
const (
	// ** World Readable **
	PermsGenericDir  = 0o755
	PermsDownloadDir = 0o755
	PermsLogFile     = 0o644

	// Executables materialized from the bundled assets.
	PermsBinaryDir  = 0o755
	PermsBinaryFile = 0o755

	// ** Private **
	PermsCookieDir  = 0o750
	PermsCookieFile = 0o600
)
