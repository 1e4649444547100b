package mongodb

const (
	UsersCollection    = "sso_users"       // Locally provisioned user accounts
	SettingsCollection = "system_settings" // Process-wide persistent settings
)
