package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/FrankX3M/wordstat-api/internal/domain"
)

var (
	ErrNoHosts      = errors.New("exporter: no hosts found")
	ErrHostNotFound = errors.New("exporter: host not found")
	ErrNoSelection  = errors.New("exporter: host selection cancelled")
)

// pickHost ищет сайт по host_id или url; без совпадения спрашивает номер в терминале
func pickHost(hosts []domain.Host, want string, interactive bool, in *bufio.Reader, out io.Writer) (domain.Host, error) {
	if len(hosts) == 0 {
		return domain.Host{}, ErrNoHosts
	}

	if want != "" {
		for _, h := range hosts {
			if want == h.HostID || want == h.URL {
				return h, nil
			}
		}
		if !interactive {
			return domain.Host{}, fmt.Errorf("%w: %s", ErrHostNotFound, want)
		}
		fmt.Fprintf(out, "Сайт %q не найден\n", want)
	} else if !interactive {
		return domain.Host{}, fmt.Errorf("%w: -host-id is required with -no-interactive", ErrHostNotFound)
	}

	return chooseHost(hosts, in, out)
}

// chooseHost выбор сайта по номеру; конец ввода отменяет выбор
func chooseHost(hosts []domain.Host, in *bufio.Reader, out io.Writer) (domain.Host, error) {
	if len(hosts) == 1 {
		return hosts[0], nil
	}

	fmt.Fprintln(out, "\nДоступные сайты:")
	for i, h := range hosts {
		fmt.Fprintf(out, "%d. id=%s url=%s verified=%t\n", i+1, h.HostID, h.URL, h.Verified)
	}

	for {
		fmt.Fprint(out, "\nВыберите сайт по номеру: ")
		line, err := in.ReadString('\n')
		choice := strings.TrimSpace(line)

		if n, convErr := strconv.Atoi(choice); convErr == nil && n >= 1 && n <= len(hosts) {
			return hosts[n-1], nil
		}
		if err != nil {
			return domain.Host{}, ErrNoSelection
		}
		fmt.Fprintf(out, "Введите число от 1 до %d\n", len(hosts))
	}
}
