package usecase

import (
	"context"
	"log/slog"
	"strings"

	"homecook-backend/internal/domain"
	"homecook-backend/internal/infrastructure/stripepay"
)

type ChefProfile struct {
	BusinessName       string `json:"businessName"`
	PickupAddress      string `json:"pickupAddress"`
	PickupPhone        string `json:"pickupPhone"`
	PickupInstructions string `json:"pickupInstructions"`
}

type OnboardingLink struct {
	AccountID string `json:"accountId"`
	URL       string `json:"url"`
}

// ChefService manages the chef's connected account and pickup details.
type ChefService struct {
	Chefs      ChefRepo
	Processor  PaymentProcessor
	RefreshURL string
	ReturnURL  string
}

func (s *ChefService) load(ctx context.Context, chefUserID string) (*domain.ChefAccount, error) {
	if chefUserID == "" {
		return nil, ErrUnauthorized("user required")
	}
	c, err := s.Chefs.GetChef(ctx, chefUserID)
	if IsNotFound(err) {
		return &domain.ChefAccount{UserID: chefUserID}, nil
	}
	return c, err
}

// StartOnboarding creates the connected account on first use and returns a
// fresh onboarding link for it.
func (s *ChefService) StartOnboarding(ctx context.Context, chefUserID string) (*OnboardingLink, error) {
	c, err := s.load(ctx, chefUserID)
	if err != nil {
		return nil, err
	}
	if c.StripeAccountID == "" {
		acct, err := s.Processor.CreateAccount(ctx, chefUserID)
		if err != nil {
			return nil, &ProviderError{Provider: stripepay.ServiceName, Code: stripepay.Code(err), Message: stripepay.Message(err), Err: err}
		}
		c.StripeAccountID = acct.ID
		c.OnboardingComplete = acct.DetailsSubmitted && acct.ChargesEnabled
		c.UpdatedAt = now()
		if err := s.Chefs.PutChef(ctx, c); err != nil {
			return nil, err
		}
		slog.InfoContext(ctx, "connected account created", "chef_user_id", chefUserID, "account_id", acct.ID)
	}
	url, err := s.Processor.CreateOnboardingLink(ctx, c.StripeAccountID, s.RefreshURL, s.ReturnURL)
	if err != nil {
		return nil, &ProviderError{Provider: stripepay.ServiceName, Code: stripepay.Code(err), Message: stripepay.Message(err), Err: err}
	}
	return &OnboardingLink{AccountID: c.StripeAccountID, URL: url}, nil
}

// RefreshOnboarding re-reads the connected account and updates the flag that
// gates payment splits and payouts.
func (s *ChefService) RefreshOnboarding(ctx context.Context, chefUserID string) (*domain.ChefAccount, error) {
	c, err := s.load(ctx, chefUserID)
	if err != nil {
		return nil, err
	}
	if c.StripeAccountID == "" {
		return nil, ErrUnconfigured("no connected account for this chef")
	}
	acct, err := s.Processor.GetAccount(ctx, c.StripeAccountID)
	if err != nil {
		return nil, &ProviderError{Provider: stripepay.ServiceName, Code: stripepay.Code(err), Message: stripepay.Message(err), Err: err}
	}
	complete := acct.DetailsSubmitted && acct.ChargesEnabled
	if complete != c.OnboardingComplete {
		c.OnboardingComplete = complete
		c.UpdatedAt = now()
		if err := s.Chefs.PutChef(ctx, c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (s *ChefService) UpdateProfile(ctx context.Context, chefUserID string, p ChefProfile) (*domain.ChefAccount, error) {
	c, err := s.load(ctx, chefUserID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.PickupAddress) == "" {
		return nil, ErrBadRequest("pickup address required")
	}
	if p.PickupPhone != "" {
		phone, ok := NormalizePhone(p.PickupPhone)
		if !ok {
			return nil, ErrBadRequest("pickup phone must be a valid phone number")
		}
		p.PickupPhone = phone
	}
	c.BusinessName = strings.TrimSpace(p.BusinessName)
	c.PickupAddress = strings.TrimSpace(p.PickupAddress)
	c.PickupPhone = p.PickupPhone
	c.PickupInstructions = strings.TrimSpace(p.PickupInstructions)
	c.UpdatedAt = now()
	if err := s.Chefs.PutChef(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
