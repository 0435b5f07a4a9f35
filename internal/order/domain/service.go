package domain

import paymentdomain "github.com/smallbiznis/campusswap/internal/payment/domain"

// Service is the order side of the payment webhook: status transitions,
// meeting point release and handoff tokens.
type Service interface {
	paymentdomain.OrderStore
	paymentdomain.LocationReleaser
	paymentdomain.TokenIssuer
}
