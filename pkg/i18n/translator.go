// Package i18n renders human-readable error messages from template keys.
package i18n

import (
	"fmt"
	"log/slog"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const logPrefix = "i18n:translator"

// Message templates. The English text doubles as the catalog key.
const (
	MsgResourceMissing     = "The API request must include a resource."
	MsgOperationInvalid    = "The API does not support the %[1]q operation."
	MsgContentNotMapping   = "The API request content must be a JSON object."
	MsgBatchContentInvalid = "The API batch create request content must be a list of JSON objects."
	MsgResourceUnknown     = "The API does not support the %[1]q resource."
	MsgPermissionDenied    = "Permission denied for the current user to %[1]s the %[2]s resource."
	MsgResponseMissing     = "The %[1]s operation on the %[2]s resource did not return a response."
	MsgResponseStatus      = "The %[1]s operation on the %[2]s resource returned an invalid status %[3]q."
	MsgResponseContent     = "The %[1]s operation on the %[2]s resource returned invalid content."
)

var french = map[string]string{
	MsgResourceMissing:     "La requête API doit préciser une ressource.",
	MsgOperationInvalid:    "L'API ne prend pas en charge l'opération %[1]q.",
	MsgContentNotMapping:   "Le contenu de la requête API doit être un objet JSON.",
	MsgBatchContentInvalid: "Le contenu d'une création par lot doit être une liste d'objets JSON.",
	MsgResourceUnknown:     "L'API ne prend pas en charge la ressource %[1]q.",
	MsgPermissionDenied:    "L'utilisateur courant n'a pas la permission de %[1]s la ressource %[2]s.",
	MsgResponseMissing:     "L'opération %[1]s sur la ressource %[2]s n'a pas renvoyé de réponse.",
	MsgResponseStatus:      "L'opération %[1]s sur la ressource %[2]s a renvoyé un statut invalide %[3]q.",
	MsgResponseContent:     "L'opération %[1]s sur la ressource %[2]s a renvoyé un contenu invalide.",
}

// Supported lists the locales with a full message set.
var Supported = []language.Tag{language.English, language.French}

// Translator formats a template key with positional arguments.
type Translator interface {
	Translate(key string, args ...any) string
}

// CatalogTranslator renders templates through an x/text message printer.
type CatalogTranslator struct {
	tag     language.Tag
	printer *message.Printer
}

// NewCatalogTranslator creates a translator for the closest supported match
// of tag.
func NewCatalogTranslator(tag language.Tag) *CatalogTranslator {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for _, key := range keys() {
		if err := b.SetString(language.English, key, key); err != nil {
			slog.Warn(fmt.Sprintf("%s - set en %q: %v", logPrefix, key, err))
		}
	}
	for key, msg := range french {
		if err := b.SetString(language.French, key, msg); err != nil {
			slog.Warn(fmt.Sprintf("%s - set fr %q: %v", logPrefix, key, err))
		}
	}

	matched, _, _ := language.NewMatcher(Supported).Match(tag)
	base, _ := matched.Base()
	resolved := language.Make(base.String())
	return &CatalogTranslator{
		tag:     resolved,
		printer: message.NewPrinter(resolved, message.Catalog(b)),
	}
}

// ParseLocale parses a BCP 47 locale string, falling back to English.
func ParseLocale(locale string) language.Tag {
	if locale == "" {
		return language.English
	}
	tag, err := language.Parse(locale)
	if err != nil {
		slog.Warn(fmt.Sprintf("%s - invalid locale %q, using en: %v", logPrefix, locale, err))
		return language.English
	}
	return tag
}

// Language returns the locale messages are rendered in.
func (t *CatalogTranslator) Language() language.Tag { return t.tag }

// Translate implements Translator.
func (t *CatalogTranslator) Translate(key string, args ...any) string {
	return t.printer.Sprintf(key, args...)
}

// Sprintf is a Translator that formats the key with fmt.
type Sprintf struct{}

// Translate implements Translator.
func (Sprintf) Translate(key string, args ...any) string {
	return fmt.Sprintf(key, args...)
}

func keys() []string {
	return []string{
		MsgResourceMissing,
		MsgOperationInvalid,
		MsgContentNotMapping,
		MsgBatchContentInvalid,
		MsgResourceUnknown,
		MsgPermissionDenied,
		MsgResponseMissing,
		MsgResponseStatus,
		MsgResponseContent,
	}
}
