package fingerprint

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateProducesCohesiveBundle(t *testing.T) {
	for i := 0; i < 50; i++ {
		b := Generate()

		switch b.OS {
		case "Windows":
			assert.Contains(t, b.UserAgent, "Windows NT")
			assert.Equal(t, "Win32", b.Platform)
		case "macOS":
			assert.Contains(t, b.UserAgent, "Macintosh")
			assert.Equal(t, "MacIntel", b.Platform)
		default:
			t.Fatalf("unexpected OS %q", b.OS)
		}

		assert.Equal(t, b.Viewport, b.Screen)
		assert.NotEmpty(t, b.Locale)
		assert.NotEmpty(t, b.Timezone)
		assert.Contains(t, []int{4, 8, 16}, b.HardwareConcurrency)
		assert.Contains(t, []int{8, 16, 32}, b.DeviceMemory)
	}
}

func TestStealthScriptEnforcesBundle(t *testing.T) {
	b := Bundle{
		OS:                  "Windows",
		UserAgent:           "ua",
		Screen:              Resolution{Width: 1920, Height: 1080},
		Viewport:            Resolution{Width: 1920, Height: 1080},
		Locale:              "en-GB",
		Timezone:            "Europe/London",
		HardwareConcurrency: 8,
		DeviceMemory:        16,
		Platform:            "Win32",
	}

	script := StealthScript(b)

	assert.Contains(t, script, "'webdriver', () => undefined")
	assert.Contains(t, script, "['en-GB', 'en']")
	assert.Contains(t, script, "'Win32'")
	assert.Contains(t, script, "() => 8")
	assert.Contains(t, script, "() => 16")
	assert.Contains(t, script, "width: 1920 + jitter()")
	assert.Contains(t, script, "availHeight: 1080")
	assert.Contains(t, script, "37445")
	assert.Contains(t, script, "getChannelData")
	assert.Contains(t, script, "enumerateDevices")
	assert.Contains(t, script, "getBattery")

	// Overrides must be getter-only definitions.
	assert.True(t, strings.Contains(script, "Object.defineProperty"))
}

func TestCacheStickyWithinTTL(t *testing.T) {
	c := NewCache(time.Hour)

	first := c.For("example.com")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, c.For("example.com"))
	}
}

func TestCacheRegeneratesAfterTTL(t *testing.T) {
	c := NewCache(time.Hour)

	base := time.Now()
	c.now = func() time.Time { return base }
	first := c.For("example.com")

	// Within the TTL the entry is reused even if generation would differ.
	c.now = func() time.Time { return base.Add(59 * time.Minute) }
	assert.Equal(t, first, c.For("example.com"))

	// Past the TTL a fresh entry is issued and cached.
	c.now = func() time.Time { return base.Add(2 * time.Hour) }
	refreshed := c.For("example.com")
	again := c.For("example.com")
	require.Equal(t, refreshed, again)
}

func TestAcceptLanguageMatchesLocale(t *testing.T) {
	b := Bundle{Locale: "en-US"}
	assert.Equal(t, "en-US,en;q=0.9", b.AcceptLanguage())
}
