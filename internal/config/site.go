package config

// SiteConfig holds per-site overrides for a single host.
// This allows customizing crawl behavior for sites that need cookies,
// extra headers, or a different scope than the global settings.
type SiteConfig struct {
	// Cookie is an HTTP cookie to send when crawling this site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Depth overrides the global crawl depth for this site.
	// Nil means the global depth is used; 0 is a valid override.
	Depth *int `yaml:"depth,omitempty"`

	// IncludeSubdomains overrides the global subdomain setting.
	IncludeSubdomains *bool `yaml:"includeSubdomains,omitempty"`
}

// File represents the structure of the .gifcrawl configuration file.
type File struct {
	// Sites maps hostnames to their site-specific configurations.
	// Keys are bare hostnames (e.g. "example.com").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains default site configuration applied to all sites
	// unless overridden in the site-specific configuration.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for the given hostname,
// merging the site-specific entry over the defaults.
//
// The returned Headers map is always a fresh copy. Assigning the defaults
// struct aliases its map, and merging site headers into the alias would
// write one site's credentials into cf.Defaults and from there into every
// other site's requests.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults

	if len(cf.Defaults.Headers) > 0 {
		result.Headers = make(map[string]string, len(cf.Defaults.Headers))
		for k, v := range cf.Defaults.Headers {
			result.Headers[k] = v
		}
	} else {
		result.Headers = nil
	}

	if site, ok := cf.Sites[host]; ok {
		if site.Cookie != "" {
			result.Cookie = site.Cookie
		}
		if site.Depth != nil {
			result.Depth = site.Depth
		}
		if site.IncludeSubdomains != nil {
			result.IncludeSubdomains = site.IncludeSubdomains
		}
		if len(site.Headers) > 0 {
			if result.Headers == nil {
				result.Headers = make(map[string]string, len(site.Headers))
			}
			for k, v := range site.Headers {
				result.Headers[k] = v
			}
		}
	}

	return result
}
