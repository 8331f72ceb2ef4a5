package fingerprint

import "math/rand"

// Resolution is a screen size in CSS pixels.
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Bundle is one cohesive synthetic browser identity. All values are drawn
// together so the OS, user agent, screen, and platform identifier agree.
type Bundle struct {
	OS                  string     `json:"os"`
	UserAgent           string     `json:"user_agent"`
	Viewport            Resolution `json:"viewport"`
	Screen              Resolution `json:"screen"`
	Locale              string     `json:"locale"`
	Timezone            string     `json:"timezone_id"`
	DeviceScaleFactor   float64    `json:"device_scale_factor"`
	HardwareConcurrency int        `json:"hardware_concurrency"`
	DeviceMemory        int        `json:"device_memory"`
	Platform            string     `json:"platform"`
}

// platformProfile fixes the values that must stay consistent with one
// another for a plausible identity.
type platformProfile struct {
	os          string
	userAgents  []string
	resolutions []Resolution
	platform    string
}

var platforms = []platformProfile{
	{
		os: "Windows",
		userAgents: []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		},
		resolutions: []Resolution{
			{Width: 1920, Height: 1080},
			{Width: 2560, Height: 1440},
		},
		platform: "Win32",
	},
	{
		os: "macOS",
		userAgents: []string{
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
		},
		resolutions: []Resolution{
			{Width: 1440, Height: 900},
			{Width: 2880, Height: 1800},
		},
		platform: "MacIntel",
	},
}

var (
	locales             = []string{"en-US", "en-GB"}
	timezones           = []string{"America/New_York", "Europe/London", "America/Los_Angeles", "Asia/Tokyo"}
	deviceScaleFactors  = []float64{1, 2}
	hardwareConcurrency = []int{4, 8, 16}
	deviceMemoryOptions = []int{8, 16, 32}
)

// Generate draws one cohesive bundle: a platform is chosen uniformly and
// its dependent values (user agent, resolution, platform name) come from
// that platform; the remaining values are drawn from fixed pools.
func Generate() Bundle {
	p := platforms[rand.Intn(len(platforms))]
	res := p.resolutions[rand.Intn(len(p.resolutions))]

	return Bundle{
		OS:                  p.os,
		UserAgent:           p.userAgents[rand.Intn(len(p.userAgents))],
		Viewport:            res,
		Screen:              res,
		Locale:              locales[rand.Intn(len(locales))],
		Timezone:            timezones[rand.Intn(len(timezones))],
		DeviceScaleFactor:   deviceScaleFactors[rand.Intn(len(deviceScaleFactors))],
		HardwareConcurrency: hardwareConcurrency[rand.Intn(len(hardwareConcurrency))],
		DeviceMemory:        deviceMemoryOptions[rand.Intn(len(deviceMemoryOptions))],
		Platform:            p.platform,
	}
}

// AcceptLanguage returns the Accept-Language header value matching the
// bundle's locale.
func (b Bundle) AcceptLanguage() string {
	return b.Locale + ",en;q=0.9"
}
