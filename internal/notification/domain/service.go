package domain

import paymentdomain "github.com/smallbiznis/campusswap/internal/payment/domain"

type Service interface {
	paymentdomain.Notifier
}
