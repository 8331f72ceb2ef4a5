package fingerprint

import "fmt"

// StealthScript builds the override script injected before any page
// JavaScript runs. It enforces the bundle's identity and counters common
// automation fingerprints (canvas, WebGL, audio, battery, media devices).
// Properties are defined getter-only so page-level redefinition attempts
// fail silently, and wrappers avoid revealing names.
func StealthScript(b Bundle) string {
	return fmt.Sprintf(`
(() => {
    const define = (obj, prop, getter) => {
        try {
            Object.defineProperty(obj, prop, { get: getter, configurable: true });
        } catch (e) {}
    };

    define(navigator, 'webdriver', () => undefined);
    define(navigator, 'languages', () => ['%s', 'en']);
    define(navigator, 'platform', () => '%s');
    define(navigator, 'hardwareConcurrency', () => %d);
    define(navigator, 'deviceMemory', () => %d);

    // Canvas noise: flip the R channel of each pixel by one.
    const getImageData = CanvasRenderingContext2D.prototype.getImageData;
    CanvasRenderingContext2D.prototype.getImageData = function () {
        const imageData = getImageData.apply(this, arguments);
        for (let i = 0; i < imageData.data.length; i += 4) {
            imageData.data[i] = imageData.data[i] + (Math.random() > 0.5 ? 1 : -1);
        }
        return imageData;
    };

    // WebGL: fixed plausible vendor/renderer for the unmasked queries.
    const getParameter = WebGLRenderingContext.prototype.getParameter;
    WebGLRenderingContext.prototype.getParameter = function (parameter) {
        if (parameter === 37445) return 'Intel Inc.';
        if (parameter === 37446) return 'Intel(R) Iris(TM) Plus Graphics 640';
        return getParameter.apply(this, arguments);
    };

    // Audio noise every 100 samples.
    const getChannelData = AudioBuffer.prototype.getChannelData;
    AudioBuffer.prototype.getChannelData = function () {
        const channelData = getChannelData.apply(this, arguments);
        for (let i = 0; i < channelData.length; i += 100) {
            channelData[i] = channelData[i] + (Math.random() * 0.0001);
        }
        return channelData;
    };

    if (navigator.getBattery) {
        navigator.getBattery = function () {
            return Promise.resolve({
                charging: true,
                chargingTime: 0,
                dischargingTime: Infinity,
                level: 0.9 + Math.random() * 0.1,
                onchargingchange: null,
                onchargingtimechange: null,
                ondischargingtimechange: null,
                onlevelchange: null,
                addEventListener: () => {},
                removeEventListener: () => {},
                dispatchEvent: () => {},
            });
        };
    }

    if (navigator.mediaDevices && navigator.mediaDevices.enumerateDevices) {
        navigator.mediaDevices.enumerateDevices = function () {
            return Promise.resolve([
                { deviceId: 'default', kind: 'audioinput', label: 'Default Audio Input', groupId: 'group1' },
                { deviceId: 'default', kind: 'videoinput', label: 'FaceTime HD Camera', groupId: 'group2' },
                { deviceId: 'default', kind: 'audiooutput', label: 'Default Audio Output', groupId: 'group1' },
            ]);
        };
    }

    // Screen with small integer jitter on width/height; avail* stays fixed.
    const jitter = () => Math.floor(Math.random() * 10);
    define(window, 'screen', () => ({
        width: %d + jitter(),
        height: %d + jitter(),
        availWidth: %d,
        availHeight: %d,
        colorDepth: 24,
        pixelDepth: 24,
    }));
})();
`,
		b.Locale,
		b.Platform,
		b.HardwareConcurrency,
		b.DeviceMemory,
		b.Screen.Width,
		b.Screen.Height,
		b.Screen.Width,
		b.Screen.Height,
	)
}
