package webmaster

import (
	"context"
	"sync"

	"github.com/FrankX3M/wordstat-api/internal/domain"
)

// UserInfoGetter источник идентификатора владельца токена
type UserInfoGetter interface {
	GetUserInfo(ctx context.Context) (*domain.UserInfo, error)
}

// Account запоминает user_id владельца токена после первого успешного запроса
// Ошибки не кэшируются: следующий вызов повторит запрос
type Account struct {
	api    UserInfoGetter
	mu     sync.Mutex
	userID string
}

func NewAccount(api UserInfoGetter) *Account {
	return &Account{api: api}
}

// UserID возвращает user_id для путей /user/{user_id}/...
func (a *Account) UserID(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.userID != "" {
		return a.userID, nil
	}

	info, err := a.api.GetUserInfo(ctx)
	if err != nil {
		return "", err
	}

	a.userID = info.UserID
	return a.userID, nil
}

// Reset забывает сохранённый user_id, например после смены токена
func (a *Account) Reset() {
	a.mu.Lock()
	a.userID = ""
	a.mu.Unlock()
}
