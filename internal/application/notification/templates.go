package notification

import "strings"

// Template is a localized notification text pair. Placeholders of the
// form {name} are replaced at render time.
type Template struct {
	Title string
	Body  string
}

const defaultLanguage = "en"

var templates = map[string]map[string]Template{
	"en": {
		"trade_requested": {
			Title: "New trade proposal",
			Body:  "{actor} wants to trade {proposer_item} for your {receiver_item}",
		},
		"trade_accepted_proposer": {
			Title: "Trade accepted",
			Body:  "{actor} accepted your proposal of {proposer_item} for {receiver_item}",
		},
		"trade_accepted_receiver": {
			Title: "Trade accepted",
			Body:  "You accepted the trade of {proposer_item} for {receiver_item}",
		},
		"trade_rejected": {
			Title: "Trade rejected",
			Body:  "{actor} rejected your proposal for {receiver_item}",
		},
		"trade_cancelled": {
			Title: "Trade cancelled",
			Body:  "{actor} cancelled the trade for {receiver_item}",
		},
		"trade_completed": {
			Title: "Trade completed",
			Body:  "The trade of {proposer_item} for {receiver_item} is complete. Enjoy your new item!",
		},
		"new_message": {
			Title: "New message",
			Body:  "{actor} sent you a message",
		},
		"welcome": {
			Title: "Welcome to Trueque",
			Body:  "Hi {name}, welcome to Trueque! Post an item and start trading.",
		},
	},
	"es": {
		"trade_requested": {
			Title: "Nueva propuesta de trueque",
			Body:  "{actor} quiere cambiar {proposer_item} por tu {receiver_item}",
		},
		"trade_accepted_proposer": {
			Title: "Trueque aceptado",
			Body:  "{actor} aceptó tu propuesta de {proposer_item} por {receiver_item}",
		},
		"trade_accepted_receiver": {
			Title: "Trueque aceptado",
			Body:  "Aceptaste el trueque de {proposer_item} por {receiver_item}",
		},
		"trade_rejected": {
			Title: "Trueque rechazado",
			Body:  "{actor} rechazó tu propuesta por {receiver_item}",
		},
		"trade_cancelled": {
			Title: "Trueque cancelado",
			Body:  "{actor} canceló el trueque por {receiver_item}",
		},
		"trade_completed": {
			Title: "Trueque completado",
			Body:  "El trueque de {proposer_item} por {receiver_item} está completo. ¡Disfruta tu nuevo artículo!",
		},
		"new_message": {
			Title: "Nuevo mensaje",
			Body:  "{actor} te envió un mensaje",
		},
		"welcome": {
			Title: "Bienvenido a Trueque",
			Body:  "Hola {name}, ¡bienvenido a Trueque! Publica un artículo y empieza a intercambiar.",
		},
	},
}

// templateFor resolves a template in the given language, falling back
// to English for unknown languages or missing entries.
func templateFor(language, name string) (Template, bool) {
	if set, ok := templates[language]; ok {
		if tpl, ok := set[name]; ok {
			return tpl, true
		}
	}
	tpl, ok := templates[defaultLanguage][name]
	return tpl, ok
}

// render substitutes {key} placeholders in the template texts.
func render(tpl Template, params map[string]string) (string, string) {
	title, body := tpl.Title, tpl.Body
	for key, value := range params {
		placeholder := "{" + key + "}"
		title = strings.ReplaceAll(title, placeholder, value)
		body = strings.ReplaceAll(body, placeholder, value)
	}
	return title, body
}
