package service

import (
	"github.com/xtding233/gacha-simulator/internal/pricing"
)

// TokensFor returns the token cost of n pulls.
func (s *Service) TokensFor(n int) int {
	return s.tokens.TokensForDraws(n)
}

// TokenName is the display name of the pull currency.
func (s *Service) TokenName() string { return s.tokens.Name }

// PlanForDraws returns the cheapest purchase covering draws pulls, together
// with the tokens those pulls cost.
func (s *Service) PlanForDraws(draws int, firstTime bool) (int, pricing.Plan, error) {
	need := s.tokens.TokensForDraws(draws)
	plan, err := s.shop.CheapestFor(need, firstTime)
	return need, plan, err
}

// PlanForBudget returns the purchase granting the most tokens within
// budgetCents, together with the number of pulls those tokens pay for.
func (s *Service) PlanForBudget(budgetCents int, firstTime bool) (pricing.Plan, int, error) {
	plan, err := s.shop.MostTokensFor(budgetCents, firstTime)
	if err != nil {
		return plan, 0, err
	}
	return plan, s.tokens.DrawsFor(plan.TotalTokens), nil
}
