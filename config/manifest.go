package config

// Manifest is a desired-state file listing several resources. Optional
// fields are pointers: an omitted field is left as it is on the server.
type Manifest struct {
	Registries []RegistryManifest `yaml:"registries,omitempty"`
	Projects   []ProjectManifest  `yaml:"projects,omitempty"`
}

type ProjectManifest struct {
	Name          string  `yaml:"name"`
	State         string  `yaml:"state,omitempty"`
	Public        *bool   `yaml:"public,omitempty"`
	AutoScan      *bool   `yaml:"auto-scan,omitempty"`
	ContentTrust  *bool   `yaml:"content-trust,omitempty"`
	QuotaGB       *int64  `yaml:"quota-gb,omitempty"`
	CacheRegistry *string `yaml:"cache-registry,omitempty"`
}

type RegistryManifest struct {
	Name         string  `yaml:"name"`
	State        string  `yaml:"state,omitempty"`
	Type         *string `yaml:"type,omitempty"`
	EndpointURL  *string `yaml:"endpoint-url,omitempty"`
	AccessKey    *string `yaml:"access-key,omitempty"`
	AccessSecret *string `yaml:"access-secret,omitempty"`
	Insecure     *bool   `yaml:"insecure,omitempty"`
}
