package proxy

import (
	"bufio"
	"os"
	"strings"

	"github.com/ternarybob/arbor"
)

// LoadProxyFile reads one proxy URL per line, skipping blanks and
// comments. A missing file is not an error: the engine simply runs
// without proxies.
func LoadProxyFile(path string, logger arbor.ILogger) []string {
	file, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn().Err(err).Str("path", path).Msg("Failed to read proxies file")
		}
		return nil
	}
	defer file.Close()

	var proxies []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		proxies = append(proxies, line)
	}
	if err := scanner.Err(); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Error while scanning proxies file")
	}
	return proxies
}
