package configuration

import (
	"bufio"
	"os"
	"strings"

	"syllabus-crawler/infrastructure/logger"
)

// LoadEnvFromFile exports KEY=VALUE pairs from the given files, skipping
// blanks, comments and keys already present in the environment. An optional
// "export " prefix is accepted. It returns how many keys were set.
func LoadEnvFromFile(paths ...string) int {
	set := 0
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			continue
		}
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			key, val, ok := parseEnvLine(scanner.Text())
			if !ok {
				continue
			}
			if _, exists := os.LookupEnv(key); exists {
				continue
			}
			if err := os.Setenv(key, val); err == nil {
				set++
			}
		}
		_ = f.Close()
		logger.GetLogger().WithField("file", p).Debug("Loaded env file")
	}
	return set
}

func parseEnvLine(line string) (string, string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	line = strings.TrimPrefix(line, "export ")
	key, val, found := strings.Cut(line, "=")
	key = strings.TrimSpace(key)
	if !found || key == "" {
		return "", "", false
	}
	return key, strings.Trim(strings.TrimSpace(val), "\"'"), true
}
