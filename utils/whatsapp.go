package utils

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatNumber renders a ticket number zero-padded to three places, the
// way it appears on the printed grid.
func FormatNumber(n int) string {
	return fmt.Sprintf("%03d", n)
}

func formatNumberList(numbers []int) string {
	parts := make([]string, len(numbers))
	for i, n := range numbers {
		parts[i] = FormatNumber(n)
	}
	return strings.Join(parts, ", ")
}

// WhatsAppLink builds a wa.me deep link that opens a chat with phoneDigits
// pre-filled with message. Constructing the link is the whole integration;
// nothing is ever read back.
func WhatsAppLink(phoneDigits, message string) string {
	encoded := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return "https://wa.me/" + Digits(phoneDigits) + "?text=" + encoded
}

// ReceiptMessage is the payment-proof message a buyer sends to the support
// number along with their PIX receipt.
func ReceiptMessage(buyerName string, numbers []int, total decimal.Decimal) string {
	firstName := buyerName
	if fields := strings.Fields(buyerName); len(fields) > 0 {
		firstName = fields[0]
	}
	return fmt.Sprintf(
		"*COMPROVANTE DE RIFA*\n\n*Nome:* %s\n*Numeros:* %s\n*Total:* R$ %s\n\nSegue o comprovante do PIX abaixo:",
		firstName, formatNumberList(numbers), total.StringFixed(2),
	)
}

// ConfirmationMessage is what the admin sends a buyer after checking the
// payment proof.
func ConfirmationMessage(buyerName string, numbers []int, total decimal.Decimal) string {
	if buyerName == "" {
		buyerName = "Cliente"
	}
	return fmt.Sprintf(
		"✅ *PAGAMENTO CONFIRMADO!*\n\nOlá %s, conferi aqui e está tudo certo!\n\n🎟 *Seus Números:* %s\n💰 *Valor:* R$ %s\n\nBoa sorte! 🍀",
		buyerName, formatNumberList(numbers), total.StringFixed(2),
	)
}
