package resolve

import (
	"bufio"
	"os"
	"strings"
)

var DefaultPublicResolvers = []string{
	"1.1.1.1",
	"8.8.8.8",
	"9.9.9.9",
}

// SystemResolverChain returns resolv.conf nameservers followed by public fallbacks.
// A missing resolv.conf is not an error; the fallbacks are used alone.
func SystemResolverChain() []string {
	system, err := loadResolvers("/etc/resolv.conf")
	if err != nil {
		system = nil
	}
	return uniqueServers(append(system, DefaultPublicResolvers...))
}

func loadResolvers(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	servers := []string{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || !strings.EqualFold(fields[0], "nameserver") {
			continue
		}
		servers = append(servers, fields[1])
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return servers, nil
}

func uniqueServers(servers []string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, server := range servers {
		server = strings.TrimSpace(server)
		if server == "" {
			continue
		}
		key := strings.ToLower(server)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, server)
	}
	return out
}
