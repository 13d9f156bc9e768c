package debian

// PackageKeeper unpacks Debian binary packages.
type PackageKeeper struct{}

const (
	memberData    = "data.tar"
	memberControl = "control.tar"
	fileControl   = "control"
)
