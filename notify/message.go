package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/clubverify/kyc-backend/model"
	"github.com/clubverify/kyc-backend/risk"
)

func orNotProvided(v string) string {
	if v == "" {
		return "Not provided"
	}
	return v
}

func orNotAvailable(v string) string {
	if v == "" {
		return "Not available"
	}
	return v
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func riskBadge(level string) string {
	switch level {
	case risk.RiskHigh:
		return "HIGH RISK"
	case risk.RiskMedium:
		return "MEDIUM RISK"
	default:
		return "LOW RISK"
	}
}

// ComposeEmailHTML renders the admin notification email body for a
// submission and its risk report.
func ComposeEmailHTML(sub model.Submission, report risk.Report) string {
	var b strings.Builder

	b.WriteString("<h2>New KYC Submission</h2>\n")
	b.WriteString("<h3>Personal Information:</h3>\n<ul>\n")
	fmt.Fprintf(&b, "<li><strong>Name:</strong> %s</li>\n", sub.FullName)
	fmt.Fprintf(&b, "<li><strong>Email:</strong> %s</li>\n", orNotProvided(sub.Email))
	fmt.Fprintf(&b, "<li><strong>Phone:</strong> %s</li>\n", orNotProvided(sub.Phone))
	fmt.Fprintf(&b, "<li><strong>Address:</strong> %s</li>\n", orNotProvided(sub.Address))
	fmt.Fprintf(&b, "<li><strong>City:</strong> %s</li>\n", orNotProvided(sub.City))
	fmt.Fprintf(&b, "<li><strong>State:</strong> %s</li>\n", orNotProvided(sub.State))
	fmt.Fprintf(&b, "<li><strong>Country:</strong> %s</li>\n", orNotProvided(sub.Country))
	fmt.Fprintf(&b, "<li><strong>Postal Code:</strong> %s</li>\n", orNotProvided(sub.PostalCode))
	b.WriteString("</ul>\n")

	b.WriteString("<h3>Player Information:</h3>\n<ul>\n")
	fmt.Fprintf(&b, "<li><strong>Platform:</strong> %s</li>\n", orNotProvided(sub.PokerPlatform))
	fmt.Fprintf(&b, "<li><strong>Player ID:</strong> %s</li>\n", orNotProvided(sub.PlayerID))
	b.WriteString("</ul>\n")

	b.WriteString("<h3>Device Information:</h3>\n<ul>\n")
	fmt.Fprintf(&b, "<li><strong>IP Address:</strong> %s</li>\n", orNotAvailable(sub.IPAddress))
	fmt.Fprintf(&b, "<li><strong>Device Fingerprint:</strong> %s</li>\n", orNotAvailable(sub.DeviceFingerprint))
	b.WriteString("</ul>\n")

	b.WriteString("<h3>Real Location:</h3>\n<ul>\n")
	if loc := report.RealLocation; loc != nil {
		fmt.Fprintf(&b, "<li><strong>Country:</strong> %s</li>\n", orNotAvailable(loc.Country))
		fmt.Fprintf(&b, "<li><strong>City:</strong> %s</li>\n", orNotAvailable(loc.City))
		fmt.Fprintf(&b, "<li><strong>Region:</strong> %s</li>\n", orNotAvailable(loc.Region))
		fmt.Fprintf(&b, "<li><strong>ISP:</strong> %s</li>\n", orNotAvailable(loc.ISP))
		fmt.Fprintf(&b, "<li><strong>Organization:</strong> %s</li>\n", orNotAvailable(loc.Organization))
		fmt.Fprintf(&b, "<li><strong>Usage Type:</strong> %s</li>\n", orNotAvailable(loc.UsageType))
		fmt.Fprintf(&b, "<li><strong>Coordinates:</strong> %v, %v</li>\n", loc.Latitude, loc.Longitude)
	} else {
		b.WriteString("<li>Not available</li>\n")
	}
	b.WriteString("</ul>\n")

	b.WriteString("<h3>Proxy/VPN Analysis:</h3>\n<ul>\n")
	if report.VPNDetected {
		b.WriteString("<li><strong>VPN/Proxy Detected:</strong> YES</li>\n")
	} else {
		b.WriteString("<li><strong>VPN/Proxy Detected:</strong> No</li>\n")
	}
	if p := report.ProxyInfo; p != nil {
		fmt.Fprintf(&b, "<li><strong>Proxy Type:</strong> %s</li>\n", orNotAvailable(p.ProxyType))
		fmt.Fprintf(&b, "<li><strong>Provider:</strong> %s</li>\n", orNotAvailable(p.Provider))
		fmt.Fprintf(&b, "<li><strong>Is VPN:</strong> %s</li>\n", yesNo(p.IsVPN))
		fmt.Fprintf(&b, "<li><strong>Is Tor:</strong> %s</li>\n", yesNo(p.IsTor))
		fmt.Fprintf(&b, "<li><strong>Is Data Center:</strong> %s</li>\n", yesNo(p.IsDataCenter))
		fmt.Fprintf(&b, "<li><strong>Threat Level:</strong> %s</li>\n", orNotAvailable(p.Threat))
		fmt.Fprintf(&b, "<li><strong>Is Spammer:</strong> %s</li>\n", yesNo(p.IsSpammer))
	}
	b.WriteString("</ul>\n")

	b.WriteString("<h3>Security Analysis:</h3>\n<ul>\n")
	fmt.Fprintf(&b, "<li><strong>Fraud Score:</strong> %d/100 %s</li>\n", report.FraudScore, riskBadge(report.FraudRisk))
	if report.LocationMismatch {
		b.WriteString("<li><strong>Location:</strong> Mismatch detected</li>\n")
	} else {
		b.WriteString("<li><strong>Location:</strong> Consistent</li>\n")
	}
	fmt.Fprintf(&b, "<li><strong>Analysis Confidence:</strong> %s</li>\n", report.Confidence)
	b.WriteString("</ul>\n")

	fmt.Fprintf(&b, "<p><strong>Submission Time:</strong> %s</p>\n", time.Now().Format(time.RFC1123))
	return b.String()
}

// ComposeTelegramMessage renders the Markdown message sent to the review
// channel for a submission and its risk report.
func ComposeTelegramMessage(sub model.Submission, report risk.Report) string {
	var b strings.Builder

	b.WriteString("*New KYC Submission*\n\n")
	b.WriteString("*Personal Info:*\n")
	fmt.Fprintf(&b, "- Name: %s\n", sub.FullName)
	fmt.Fprintf(&b, "- Email: %s\n", orNotProvided(sub.Email))
	fmt.Fprintf(&b, "- Phone: %s\n", orNotProvided(sub.Phone))
	fmt.Fprintf(&b, "- Country: %s\n", orNotProvided(sub.Country))

	b.WriteString("\n*Player Info:*\n")
	fmt.Fprintf(&b, "- Platform: %s\n", orNotProvided(sub.PokerPlatform))
	fmt.Fprintf(&b, "- Player ID: %s\n", orNotProvided(sub.PlayerID))

	b.WriteString("\n*Real Location:*\n")
	if loc := report.RealLocation; loc != nil {
		fmt.Fprintf(&b, "- Country: %s\n", orNotAvailable(loc.Country))
		fmt.Fprintf(&b, "- City: %s\n", orNotAvailable(loc.City))
		fmt.Fprintf(&b, "- ISP: %s\n", orNotAvailable(loc.ISP))
		fmt.Fprintf(&b, "- Usage Type: %s\n", orNotAvailable(loc.UsageType))
	} else {
		b.WriteString("- Not available\n")
	}

	b.WriteString("\n*Proxy/VPN Analysis:*\n")
	if report.VPNDetected {
		b.WriteString("- VPN/Proxy: DETECTED\n")
	} else {
		b.WriteString("- VPN/Proxy: Clean\n")
	}
	if p := report.ProxyInfo; p != nil {
		fmt.Fprintf(&b, "- Type: %s\n", orNotAvailable(p.ProxyType))
		fmt.Fprintf(&b, "- Tor: %s\n", yesNo(p.IsTor))
		fmt.Fprintf(&b, "- Data Center: %s\n", yesNo(p.IsDataCenter))
		fmt.Fprintf(&b, "- Threat: %s\n", orNotAvailable(p.Threat))
	}

	b.WriteString("\n*Security Analysis:*\n")
	fmt.Fprintf(&b, "- Fraud Score: %d/100 (%s)\n", report.FraudScore, strings.ToUpper(report.FraudRisk))
	if report.LocationMismatch {
		b.WriteString("- Location: MISMATCH\n")
	} else {
		b.WriteString("- Location: Consistent\n")
	}
	fmt.Fprintf(&b, "- Confidence: %s\n", report.Confidence)

	fmt.Fprintf(&b, "\n*Device:*\n- IP: %s\n- Fingerprint: %s\n",
		orNotAvailable(sub.IPAddress), orNotAvailable(sub.DeviceFingerprint))

	fmt.Fprintf(&b, "\n*Submitted:* %s\n", time.Now().Format(time.RFC1123))
	return b.String()
}
