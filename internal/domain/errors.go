package domain

import "errors"

var (
	ErrPlayerNotFound    = errors.New("player not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUpgradeNotFound   = errors.New("upgrade not found")
	ErrUpgradeMaxed      = errors.New("upgrade already at max level")
	ErrSelfTransfer      = errors.New("cannot transfer to yourself")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrRecipientNotFound = errors.New("recipient not found")
)
