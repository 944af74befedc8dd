package webmaster

import (
	"fmt"
	"net/url"
	"strings"
)

// escapeSegment экранирует сегмент пути целиком, включая ':' и '/'
// Идентификатор сайта имеет вид "https:example.com:443"
func escapeSegment(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func UserPath() string {
	return "/user"
}

func HostsPath(userID string) string {
	return fmt.Sprintf("/user/%s/hosts", escapeSegment(userID))
}

func HostPath(userID, hostID string) string {
	return fmt.Sprintf("%s/%s", HostsPath(userID), escapeSegment(hostID))
}

func SummaryPath(userID, hostID string) string {
	return HostPath(userID, hostID) + "/summary"
}

// PopularQueriesPath путь выгрузки популярных запросов
func PopularQueriesPath(userID, hostID string) string {
	return HostPath(userID, hostID) + "/search-queries/popular"
}

// QueryHistoryPath путь истории отдельного запроса
func QueryHistoryPath(userID, hostID, queryID string) string {
	return fmt.Sprintf("%s/search-queries/%s/history", HostPath(userID, hostID), escapeSegment(queryID))
}
