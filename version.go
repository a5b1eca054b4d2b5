package onboarding

// Version is the release of the module. Builds override it with
// -ldflags "-X github.com/techiemaya-admin/lad-onboarding.Version=...".
var Version = "0.4.0"
