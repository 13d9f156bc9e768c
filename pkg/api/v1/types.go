package v1

import metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

type Resolver string

const (
	// ResolverAptGet delegates resolution to apt-get running
	// against a private APT root.
	ResolverAptGet Resolver = "apt-get"
	// ResolverIndex resolves packages by reading the repository
	// Packages index directly.
	ResolverIndex Resolver = "index"
)

const DefaultArchitecture = "amd64"

type ArchiveSpec struct {
	Architecture string       `json:"architecture,omitempty"`
	Resolver     Resolver     `json:"resolver,omitempty"`
	Repositories []Repository `json:"repositories,omitempty"`
	Packages     []string     `json:"packages,omitempty"`
	// AptOptions are additional arguments passed to every
	// apt-get invocation (e.g. "-o Acquire::Retries=3").
	AptOptions string `json:"aptOptions,omitempty"`
}

// Repository is a single APT source in the form
// "<base> <release> <component>".
type Repository struct {
	URL string `json:"url"`
	// Keyring is an optional path to an armored OpenPGP
	// public key used to verify the repository InRelease file.
	Keyring string `json:"keyring,omitempty"`
}

type Archive struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec ArchiveSpec `json:"spec"`
}
