package services

import (
	"context"

	"github.com/skcgolf/skc-api/internal/models"
	"github.com/skcgolf/skc-api/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendActivationEmail(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockMailer) SendPasswordResetMail(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockMailer) SendCreationEmail(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

// nopMailer accepts every send.
func nopMailer() *MockMailer {
	m := &MockMailer{}
	m.On("SendActivationEmail", mock.Anything, mock.Anything).Return(nil)
	m.On("SendPasswordResetMail", mock.Anything, mock.Anything).Return(nil)
	m.On("SendCreationEmail", mock.Anything, mock.Anything).Return(nil)
	return m
}

func pageOf(page, size int) repository.Pageable {
	return repository.Pageable{Page: page, Size: size}
}
