package buildfile

const (
	Name = "BUILD.bazel"

	kindLibrary   = "cc_library"
	kindFilegroup = "filegroup"
	kindAlias     = "alias"

	// FilesTarget is the name of the filegroup containing
	// every file of a package.
	FilesTarget = "files"
)

// Target is a single materialised Debian package.
type Target struct {
	// Name is the Debian package name, which is also
	// used as the Bazel package and target name.
	Name    string
	Version string
	// Deps are the in-scope dependencies of the package.
	Deps []string
}

var (
	headerPatterns  = []string{"usr/include/**/*.h", "usr/include/**/*.hpp", "usr/include/**/*.hh", "usr/include/**/*.inc"}
	libraryPatterns = []string{"usr/lib/**/*.so", "usr/lib/**/*.so.*", "usr/lib/**/*.a", "lib/**/*.so", "lib/**/*.so.*"}
	visibility      = []string{"//visibility:public"}
)
