package conversation

import (
	"fmt"
	"strings"

	"github.com/rushikeshnagarkar/balutedaar-app/internal/referrals"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/db/models"
)

const welcomeMessage = `Ram Ram Mandali 🙏

🌟 *Welcome to Balutedaar!* 🌿🥦

We bring you *Farm-Fresh Vegetable Boxes* handpicked with love by rural mothers, curated for urban families like yours! 💚

Here’s why you’ll love us:
👩‍🌾 *Fresh from Mother Earth* – Pure, healthy veggies for your family.
🌍 *Eco-Friendly* – Low carbon footprint for a greener planet.
💸 *Support Farmers Directly* – Your purchase empowers farmers with fair earnings.
👩‍💼 *Empower Rural Women* – Create jobs for hardworking women in villages.
🌱 *Your Choice, Your Way* – Pick what’s best for your family, we’ll deliver!

🌟 *A small step towards fresh, sustainable, and empowering food for your loved ones!* 🇮🇳

Let’s get started – please enter your *Name* to order. 👇`

const invalidNameMessage = `⚠️ Please enter a valid name using alphabetic characters only.`

const invalidPincodeMessage = `*Invalid pincode!* ⚠️
Please enter a *6-digit pincode* (e.g., 411038). 📍`

const askAddressMessage = `🚚 Just one more step!

Kindly share your complete delivery address so we can deliver your veggies without any delay.`

const invalidAddressMessage = `😕 Oops! That doesn’t look like a valid address. Please enter a complete address with house/flat number, street name, and area (e.g., Flat 101, Baner Road, Pune). Use letters, numbers, spaces, commas, periods, hyphens, or slashes only.`

const askReferralMessage = `🎁 Do you have a *referral code*?

Enter it now to unlock a discount on this order, or reply *skip* to continue. 👇`

const referralAppliedMessage = `✅ Referral code applied! Your discount will show up in the order summary. 🎉`

const paymentPromptMessage = `💳 Please select your preferred payment method to continue:`

const noOrderMessage = `No order details found! Please select a combo to proceed.`

const unavailableComboMessage = `Sorry, none of the selected products are available. Please choose another combo.`

const fallbackMessage = `Sorry, I didn’t catch that. 🙏 Please reply with one of the options above, or say *Hi* to start over.`

const genericRetryMessage = `Something went wrong on our side. Please try again in a moment. 🙏`

func pincodePrompt(name string) string {
	return fmt.Sprintf("*Hi %s!* 👋  \nPlease enter your *6-digit pincode* to continue. 📍", name)
}

func unservedPincodeMessage(pincodes []string) string {
	var b strings.Builder
	b.WriteString("*Sorry, this pincode is not served yet!* 😔  \nWe currently deliver to these areas:  \n")
	for _, pin := range pincodes {
		fmt.Fprintf(&b, "• *%s*  \n", pin)
	}
	b.WriteString("Please enter a valid pincode from the list above. 📍")
	return b.String()
}

func addressChoicePrompt(address string) string {
	return fmt.Sprintf("📍 We have this delivery address on file:\n\n%s\n\nDeliver there again, or enter a new address?", address)
}

func cartSummaryMessage(name string, items []models.CartItem, quote referrals.Quote, address string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi *%s*, 👋\n\nHere’s your Order Summary:\n\n", name)
	for _, item := range items {
		fmt.Fprintf(&b, "🛒 %s x%d: ₹%s\n", item.ComboName, item.Quantity, item.Subtotal().StringFixed(2))
	}
	if quote.FlatDiscount.IsPositive() {
		fmt.Fprintf(&b, "\n🎁 Referral Discount: -₹%s", quote.FlatDiscount.StringFixed(2))
	}
	if quote.TierPercent > 0 {
		fmt.Fprintf(&b, "\n⭐ Loyalty Discount: %d%%", quote.TierPercent)
	}
	fmt.Fprintf(&b, "\n💰 Total Amount: ₹%s", quote.Total.StringFixed(2))
	if address != "" {
		fmt.Fprintf(&b, "\n📍 Delivery Address: %s", address)
	}
	b.WriteString("\n\nPlease confirm your order or go back to the menu to make changes.")
	return b.String()
}

func codConfirmationMessage(name string, lines []models.Order, total, address, newCode string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear *%s*,\n\nThank you for your order with Balutedaar! Below is your order confirmation:\n\n📦 *Order Details*:\n", name)
	for _, line := range lines {
		fmt.Fprintf(&b, "🛒 %s x%d: ₹%s\n", line.ComboName, line.Quantity, line.LineAmount.StringFixed(2))
	}
	fmt.Fprintf(&b, "\n💰 Total Amount: ₹%s\n📍 Delivery Address: %s\n", total, address)
	b.WriteString("🚚 *Delivery Schedule*: Your order will be delivered to your doorstep by tomorrow 9 AM.\n\n")
	if newCode != "" {
		fmt.Fprintf(&b, "🎁 Share your referral code *%s* with friends – they save on their first box and you earn rewards!\n\n", newCode)
	}
	b.WriteString("We appreciate your support for fresh, sustainable produce. If you have any questions, feel free to reach out!\n\nBest regards,\nThe Balutedaar Team")
	return b.String()
}

func paymentLinkMessage(name string, lines []models.Order, total, address, paymentURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear *%s*,\n\nPlease complete your payment of ₹%s for your Balutedaar order.\n\n📦 Order Details:\n", name, total)
	for _, line := range lines {
		fmt.Fprintf(&b, "🛒 %s x%d: ₹%s\n", line.ComboName, line.Quantity, line.LineAmount.StringFixed(2))
	}
	fmt.Fprintf(&b, "\n💰 Total: ₹%s\n📍 Delivery Address: %s\n\n", total, address)
	fmt.Fprintf(&b, "Click here to pay: %s\n\n", paymentURL)
	b.WriteString("Complete the payment to confirm your order!")
	return b.String()
}

func milestoneMessage(code string) string {
	return fmt.Sprintf("🏆 Amazing! Five friends have ordered with your referral code *%s*. A *free veggie box* is on us with your next delivery! 🥦", code)
}
