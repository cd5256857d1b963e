// Package knowledge answers clinic FAQ queries from a fixed in-process
// knowledge base. Answers are curated copy, not generated text.
package knowledge

import "strings"

// ClinicInfo is the static profile of the clinic.
type ClinicInfo struct {
	Location     string `json:"location"`
	Hours        string `json:"hours"`
	Service      string `json:"service"`
	Duration     string `json:"duration"`
	Price        string `json:"price"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
	Staff        string `json:"staff"`
	Description  string `json:"description"`
}

// ContactInfo is the subset of clinic data used for escalation messages.
type ContactInfo struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
}

// Answer is the result of a knowledge base lookup. Lookups always succeed;
// unmatched questions get the general summary answer.
type Answer struct {
	Success  bool   `json:"success"`
	Category string `json:"category"`
	Answer   string `json:"answer"`
	Source   string `json:"source"`
}

// ClinicInfoResult carries the clinic profile plus a display rendering.
type ClinicInfoResult struct {
	Success   bool       `json:"success"`
	Clinic    ClinicInfo `json:"clinic"`
	Formatted string     `json:"formatted"`
}

// category pairs trigger keywords with a canned answer. Categories are
// scanned in order and the first keyword hit wins, so specific categories
// (late_arrival) must precede broader ones that share keywords.
type category struct {
	name     string
	keywords []string
	answer   string
}

// Service serves FAQ and clinic information lookups.
type Service struct {
	clinic     ClinicInfo
	categories []category
}

// NewService builds the service with the clinic's current data.
func NewService() *Service {
	return &Service{
		clinic: ClinicInfo{
			Location:     "123 Main Street, Dublin, Ireland",
			Hours:        "Monday-Friday, 9:00 AM - 5:00 PM",
			Service:      "Dental checkups",
			Duration:     "30 minutes",
			Price:        "€60",
			ContactEmail: "info@acmedental.ie",
			ContactPhone: "+353 1 234 5678",
			Staff:        "One experienced dentist",
			Description:  "Comprehensive oral examinations",
		},
		categories: []category{
			{
				name:     "pricing",
				keywords: []string{"cost", "price", "how much", "fee", "charge"},
				answer: "€60 standard checkup. Student (ID required): €50. Senior 65+: €50. " +
					"Cannot combine discounts. No deposit required to book.",
			},
			{
				name:     "included",
				keywords: []string{"included", "include", "what do"},
				answer: "Checkup includes: full oral examination, gum health check, concern review, " +
					"recommendations. Duration: 30 minutes. X-rays NOT included - dentist will " +
					"explain if needed.",
			},
			{
				name:     "duration",
				keywords: []string{"long", "duration", "minutes", "how many"},
				answer:   "Each checkup is 30 minutes.",
			},
			{
				name:     "what_to_bring",
				keywords: []string{"bring", "need to bring", "should i bring"},
				answer: "Bring: valid photo ID, medical information (if applicable), " +
					"insurance details (if you have them).",
			},
			{
				name:     "arrival",
				keywords: []string{"early", "arrive", "arrival", "when should i come"},
				answer:   "Arrive 5-10 minutes early to settle in.",
			},
			{
				name:     "late_arrival",
				keywords: []string{"late", "running late", "arrive late"},
				answer: "If running late, message us ASAP. We'll try to accommodate but may need to " +
					"reschedule if we can't complete the 30-minute checkup.",
			},
			{
				name:     "cancellation_policy",
				keywords: []string{"cancel", "policy", "cancellation fee"},
				answer: "Free cancellation 24+ hours before. Less than 24hrs: €20 late cancellation fee. " +
					"No-show: €20 fee.",
			},
			{
				name:     "no_show",
				keywords: []string{"no-show", "miss", "didn't attend", "no show"},
				answer:   "No-shows may incur €20 fee. You can still rebook through the assistant afterward.",
			},
			{
				name:     "payment",
				keywords: []string{"pay", "payment", "card", "cash"},
				answer: "Payment options: card (in-clinic), contactless, or cash (exact amount preferred). " +
					"No deposit required to book.",
			},
			{
				name:     "insurance",
				keywords: []string{"insurance"},
				answer: "We provide receipts for insurance claims. We don't process claims directly - " +
					"submit receipt to your insurance provider yourself.",
			},
			{
				name:     "receipt",
				keywords: []string{"receipt", "invoice"},
				answer: "Yes, we provide receipts for all appointments. For invoices with specific details, " +
					"ask at reception during your visit.",
			},
			{
				name:     "discounts",
				keywords: []string{"discount", "cheaper", "student", "senior"},
				answer: "Student discount (valid ID required): €50. Senior 65+ discount: €50. " +
					"Discounts cannot be combined.",
			},
			{
				name:     "emergency",
				keywords: []string{"emergency", "urgent", "pain"},
				answer: "We don't offer emergency treatment. For severe pain, swelling, or bleeding, " +
					"contact emergency dental services in your area.",
			},
			{
				name:     "walk_ins",
				keywords: []string{"walk", "walk-in", "without appointment"},
				answer:   "No walk-ins accepted. All appointments must be booked in advance through this assistant.",
			},
			{
				name:     "dentist",
				keywords: []string{"dentist", "doctor", "specific dentist"},
				answer: "Acme Dental has one dentist who handles all checkup appointments. " +
					"Every booking is automatically with them.",
			},
			{
				name:     "account",
				keywords: []string{"account", "sign up", "register"},
				answer:   "No account required to book. We only need your full name and email address.",
			},
			{
				name:     "booking_others",
				keywords: []string{"someone else", "for another", "on behalf"},
				answer: "Yes, you can book for someone else. Just provide their full name and " +
					"email address when asked.",
			},
			{
				name:     "confirmation",
				keywords: []string{"confirmation", "email", "didn't receive", "not received"},
				answer: "Check your spam/junk folder first. If still not there, tell me " +
					"'I didn't get my confirmation email' and I'll help verify your booking details.",
			},
			{
				name:     "follow_up",
				keywords: []string{"follow-up", "another appointment", "book again"},
				answer: "Yes! Just tell me 'Book another checkup appointment' and I'll show you " +
					"available times.",
			},
			{
				name:     "x_ray",
				keywords: []string{"x-ray", "xray"},
				answer: "X-rays are NOT included in the €60 checkup. If X-rays are needed, " +
					"the dentist will explain next steps and options.",
			},
			{
				name:     "privacy",
				keywords: []string{"privacy", "secure", "personal information", "data"},
				answer: "We only collect minimum details needed (name + email) and use them solely for " +
					"scheduling and confirmations. Your information is secure.",
			},
			{
				name:     "services",
				keywords: []string{"services", "what do you offer"},
				answer: "Acme Dental currently offers routine dental checkups only. " +
					"Check-up includes oral examination and general health assessment.",
			},
		},
	}
}

// generalAnswer summarises the whole knowledge base for questions that
// match no category.
const generalAnswer = "Acme Dental: €60 checkups (30 min), one dentist. Student/Senior: €50. " +
	"Checkup includes: oral exam, gum check, concern review. X-rays NOT included. " +
	"Free cancel 24hrs+, €20 fee if less. Payment: card/contactless/cash. " +
	"Bring: ID, medical info, insurance details. Arrive 5-10min early. " +
	"No account needed - just name & email."

// Search answers a free-text question by first-match keyword scan over the
// category list. It never fails; an unmatched question gets the general
// summary.
func (s *Service) Search(question string) Answer {
	q := strings.ToLower(question)

	for _, cat := range s.categories {
		for _, kw := range cat.keywords {
			if strings.Contains(q, kw) {
				return Answer{
					Success:  true,
					Category: cat.name,
					Answer:   cat.answer,
					Source:   "knowledge_base",
				}
			}
		}
	}

	return Answer{
		Success:  true,
		Category: "general",
		Answer:   generalAnswer,
		Source:   "knowledge_base",
	}
}

// ClinicInfo returns the clinic profile with a display rendering.
func (s *Service) ClinicInfo() ClinicInfoResult {
	c := s.clinic
	formatted := "**Acme Dental Clinic Information:**\n" +
		"- Location: " + c.Location + "\n" +
		"- Hours: " + c.Hours + "\n" +
		"- Services: " + c.Service + " (" + c.Duration + ", " + c.Price + ")\n" +
		"- Contact: " + c.ContactEmail + " | " + c.ContactPhone + "\n" +
		"- Staff: " + c.Staff + "\n" +
		"- Description: " + c.Description
	return ClinicInfoResult{Success: true, Clinic: c, Formatted: formatted}
}

// ContactInfo returns the clinic's contact details.
func (s *Service) ContactInfo() ContactInfo {
	return ContactInfo{
		Email:    s.clinic.ContactEmail,
		Phone:    s.clinic.ContactPhone,
		Location: s.clinic.Location,
	}
}
