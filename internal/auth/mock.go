package auth

import "github.com/stretchr/testify/mock"

type MockTokenVerifier struct {
	mock.Mock
}

func (m *MockTokenVerifier) Verify(tokenString string) (Claims, error) {
	args := m.Called(tokenString)
	return args.Get(0).(Claims), args.Error(1)
}
