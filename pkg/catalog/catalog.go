// pkg/catalog/catalog.go - the SQL Server versions and client drivers that can be installed.

package catalog

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/windowsadmins/setup-sqlserver/pkg/outcome"
)

// DefaultVersion is installed when no version, or "latest", is requested.
const DefaultVersion = "2022"

//go:embed versions.yaml
var embedded []byte

// OSSupport bounds the runner image years a release installs on. A zero
// bound is open.
type OSSupport struct {
	Min int `yaml:"min,omitempty"`
	Max int `yaml:"max,omitempty"`
}

// VersionConfig describes where to get one SQL Server release.
type VersionConfig struct {
	Version     string     `yaml:"-"`
	ExeURL      string     `yaml:"exeUrl"`
	BoxURL      string     `yaml:"boxUrl,omitempty"`    // second stage payload of two-stage media
	UpdateURL   string     `yaml:"updateUrl,omitempty"` // cumulative update exe or its landing page
	OSSupport   *OSSupport `yaml:"osSupport,omitempty"`
	InstallArgs []string   `yaml:"installArgs,omitempty"`
}

// Package describes an MSI-distributed dependency such as a client driver.
type Package struct {
	Name      string            `yaml:"name"`
	Version   string            `yaml:"version"`
	URLs      map[string]string `yaml:"urls"` // keyed by arch (x64, x86)
	AppGUID   string            `yaml:"appGuid,omitempty"`
	ExtraArgs []string          `yaml:"extraArgs,omitempty"`
	Silent    bool              `yaml:"-"` // run msiexec with /passive; defaults to true
}

// packageEntry is a Package as written in versions.yaml.
type packageEntry struct {
	Package `yaml:",inline"`
	Silent  *bool `yaml:"silent"`
}

// Catalog is an immutable, ordered view of the known releases and drivers.
type Catalog struct {
	keys     []string
	versions map[string]VersionConfig

	nativeClientKeys []string
	nativeClient     map[string]Package
	odbcKeys         []string
	odbc             map[string]Package
}

type document struct {
	SQLServer    yaml.Node `yaml:"sqlserver"`
	NativeClient yaml.Node `yaml:"nativeClient"`
	ODBC         yaml.Node `yaml:"odbc"`
}

var (
	defaultCatalog *Catalog
	defaultOnce    sync.Once
)

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load(embedded)
		if err != nil {
			panic(fmt.Sprintf("catalog: embedded versions.yaml is invalid: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Load parses a catalog document.
func Load(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}

	c := &Catalog{
		versions:     make(map[string]VersionConfig),
		nativeClient: make(map[string]Package),
		odbc:         make(map[string]Package),
	}

	err := eachEntry(&doc.SQLServer, func(key string, value *yaml.Node) error {
		var cfg VersionConfig
		if err := value.Decode(&cfg); err != nil {
			return err
		}
		if cfg.ExeURL == "" {
			return fmt.Errorf("version %s has no exeUrl", key)
		}
		cfg.Version = key
		c.keys = append(c.keys, key)
		c.versions[key] = cfg
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: sqlserver: %w", err)
	}

	if c.nativeClientKeys, err = loadPackages(&doc.NativeClient, c.nativeClient); err != nil {
		return nil, fmt.Errorf("catalog: nativeClient: %w", err)
	}
	if c.odbcKeys, err = loadPackages(&doc.ODBC, c.odbc); err != nil {
		return nil, fmt.Errorf("catalog: odbc: %w", err)
	}
	return c, nil
}

// Lookup returns the configuration for version.
func (c *Catalog) Lookup(version string) (VersionConfig, bool) {
	cfg, ok := c.versions[version]
	return cfg, ok
}

// Keys returns the supported versions in catalog order.
func (c *Catalog) Keys() []string {
	return append([]string(nil), c.keys...)
}

// NativeClientKeys returns the supported SQL Native Client versions.
func (c *Catalog) NativeClientKeys() []string {
	return append([]string(nil), c.nativeClientKeys...)
}

// ODBCKeys returns the supported ODBC driver versions.
func (c *Catalog) ODBCKeys() []string {
	return append([]string(nil), c.odbcKeys...)
}

// NativeClient returns the SQL Native Client package for version.
func (c *Catalog) NativeClient(version string) (Package, error) {
	pkg, ok := c.nativeClient[version]
	if !ok {
		if len(c.nativeClientKeys) == 1 {
			return Package{}, outcome.Configf("Unsupported Native Client version, only %s is valid.", c.nativeClientKeys[0])
		}
		return Package{}, outcome.Configf("Unsupported Native Client version %s. Must be one of %s.", version, strings.Join(c.nativeClientKeys, ", "))
	}
	return pkg, nil
}

// ODBC returns the ODBC driver package for version.
func (c *Catalog) ODBC(version string) (Package, error) {
	pkg, ok := c.odbc[version]
	if !ok {
		return Package{}, outcome.Configf("Invalid ODBC version supplied %s. Must be one of %s.", version, strings.Join(c.odbcKeys, ", "))
	}
	return pkg, nil
}

// URL picks the download for arch, falling back to any available one.
func (p Package) URL(arch string) string {
	if u := p.URLs[arch]; u != "" {
		return u
	}
	for _, key := range []string{"x64", "x86"} {
		if u := p.URLs[key]; u != "" {
			return u
		}
	}
	for _, u := range p.URLs {
		if u != "" {
			return u
		}
	}
	return ""
}

func loadPackages(node *yaml.Node, into map[string]Package) ([]string, error) {
	var keys []string
	err := eachEntry(node, func(key string, value *yaml.Node) error {
		var entry packageEntry
		if err := value.Decode(&entry); err != nil {
			return err
		}
		pkg := entry.Package
		if pkg.Name == "" {
			return fmt.Errorf("package %s has no name", key)
		}
		if len(pkg.URLs) == 0 {
			return fmt.Errorf("package %s has no urls", key)
		}
		if pkg.Version == "" {
			pkg.Version = key
		}
		pkg.Silent = entry.Silent == nil || *entry.Silent
		keys = append(keys, key)
		into[key] = pkg
		return nil
	})
	return keys, err
}

// eachEntry walks a YAML mapping in document order.
func eachEntry(node *yaml.Node, fn func(key string, value *yaml.Node) error) error {
	if node.Kind == 0 {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("expected a mapping at line %d", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if err := fn(key, node.Content[i+1]); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}
