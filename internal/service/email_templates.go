package service

import (
	"fmt"
	"strings"

	"github.com/templui/hrvault/internal/model"
)

func shareLinkEmailTemplate(senderName, fileName, label, shareURL string, link *model.ShareLink, appName string) (string, string) {
	if senderName == "" {
		senderName = "A colleague"
	}

	subject := fmt.Sprintf("%s shared \"%s\" with you", senderName, fileName)
	body := fmt.Sprintf(`Hi,

%s shared a %s with you on %s:
%s

%s

Best,
The %s Team`, senderName, strings.ToLower(label), appName, shareURL, shareLinkTerms(link), appName)

	return subject, body
}

func shareLinkTerms(link *model.ShareLink) string {
	var terms []string
	if link.ExpiresAt != nil {
		terms = append(terms, "expires on "+link.ExpiresAt.UTC().Format("January 2, 2006"))
	}
	if link.MaxDownloads != nil {
		if *link.MaxDownloads == 1 {
			terms = append(terms, "can be downloaded once")
		} else {
			terms = append(terms, fmt.Sprintf("can be downloaded %d times", *link.MaxDownloads))
		}
	}
	if len(terms) == 0 {
		return "This link does not expire."
	}
	return "This link " + strings.Join(terms, " and ") + "."
}
