package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/shinyyama/scrap-exchange/internal/model"
	"github.com/shinyyama/scrap-exchange/internal/repository"
)

var upiHandlePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{2,256}@[a-zA-Z][a-zA-Z0-9]{1,63}$`)

// PayeeResolver finds where a seller is paid for a given method.
type PayeeResolver interface {
	ResolveUPIHandle(ctx context.Context, sellerID string) (string, error)
}

type PayeeService interface {
	PayeeResolver
	Get(ctx context.Context, userID string) (*model.PayeeProfile, error)
	SetUPIHandle(ctx context.Context, userID, handle string) (*model.PayeeProfile, error)
}

type payeeService struct {
	repo repository.PayeeRepository
}

func NewPayeeService(repo repository.PayeeRepository) PayeeService {
	return &payeeService{repo: repo}
}

func (s *payeeService) Get(ctx context.Context, userID string) (*model.PayeeProfile, error) {
	p, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, storeErr(err)
	}
	return p, nil
}

func (s *payeeService) SetUPIHandle(ctx context.Context, userID, handle string) (*model.PayeeProfile, error) {
	if userID == "" {
		return nil, invalid("user is required")
	}
	handle = strings.TrimSpace(handle)
	if handle != "" && !upiHandlePattern.MatchString(handle) {
		return nil, invalid("upi handle must look like name@bank")
	}
	p := &model.PayeeProfile{UserID: userID, UPIHandle: handle}
	if err := s.repo.Upsert(ctx, p); err != nil {
		return nil, storeErr(err)
	}
	return p, nil
}

func (s *payeeService) ResolveUPIHandle(ctx context.Context, sellerID string) (string, error) {
	p, err := s.repo.Get(ctx, sellerID)
	if err != nil {
		if errors.Is(storeErr(err), ErrNotFound) {
			return "", ErrPaymentConfigMissing
		}
		return "", storeErr(err)
	}
	if strings.TrimSpace(p.UPIHandle) == "" {
		return "", ErrPaymentConfigMissing
	}
	return p.UPIHandle, nil
}
