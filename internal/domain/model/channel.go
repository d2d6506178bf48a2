package model

import "strings"

// WalletChannel identifies the wallet account a transfer was routed through.
// Movements imported from wallet exports carry the same vocabulary, encoded
// as a numeric code in the feed.
type WalletChannel string

const (
	ChannelBarroso WalletChannel = "barroso"
	ChannelDC      WalletChannel = "dc"
	ChannelOther   WalletChannel = "other"
	ChannelAmfris  WalletChannel = "amfris"
	ChannelManzo   WalletChannel = "manzo"
)

// Valid reports whether c is one of the known channels.
func (c WalletChannel) Valid() bool {
	switch c {
	case ChannelBarroso, ChannelDC, ChannelOther, ChannelAmfris, ChannelManzo:
		return true
	}
	return false
}

// Code returns the numeric code the wallet feed uses for the channel.
func (c WalletChannel) Code() int {
	switch c {
	case ChannelBarroso:
		return 1
	case ChannelDC:
		return 2
	case ChannelAmfris:
		return 4
	case ChannelManzo:
		return 5
	default:
		return 3
	}
}

// ChannelFromCode maps a wallet feed code back to a channel. Unknown codes
// fall back to ChannelOther.
func ChannelFromCode(code int) WalletChannel {
	switch code {
	case 1:
		return ChannelBarroso
	case 2:
		return ChannelDC
	case 4:
		return ChannelAmfris
	case 5:
		return ChannelManzo
	default:
		return ChannelOther
	}
}

// ChannelFromKeywords infers a channel from free text, typically an export
// file name or an operator-entered label. The keyword set mirrors how the
// wallet providers name their exports (RAYA is the legacy name of the
// barroso account).
func ChannelFromKeywords(s string) WalletChannel {
	upper := strings.ToUpper(s)
	switch {
	case strings.Contains(upper, "RAYA"), strings.Contains(upper, "BARROSO"):
		return ChannelBarroso
	case strings.Contains(upper, "DC"):
		return ChannelDC
	case strings.Contains(upper, "AMFRIS"):
		return ChannelAmfris
	case strings.Contains(upper, "MANZO"):
		return ChannelManzo
	default:
		return ChannelOther
	}
}
