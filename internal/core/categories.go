package core

// baseCategories is the catalog every new user is linked to at
// registration time. The global catalog is append-only; additions after a
// user registered are not linked retroactively.
var baseCategories = []string{
	// Finanzas
	"TARJETA DE CRÉDITO",
	"INVERSIONES",
	// Comida
	"SUPERMERCADO",
	"SALIR A COMER",
	"COMIDA A DOMICILIO",
	// Vivienda / Hogar
	"LIMPIEZA",
	"MANTENIMIENTO HOGAR",
	"EXPENSAS",
	// Transporte
	"TRANSPORTE PÚBLICO",
	"TAXI",
	// Servicios básicos
	"ELECTRICIDAD",
	"GAS",
	"AGUA",
	"INTERNET",
	"TELÉFONO",
	"INMOBILIARIO",
	"MUNICIPAL",
	// Suscripciones / Tecnología
	"SPOTIFY",
	"CHATBOT",
	"TECNOLOGÍA",
	// Educación / Salud / Bienestar
	"EDUCACIÓN",
	"GIMNASIO",
	"ROPA",
	"SALUD",
	// Ocio / Sociales
	"SALIDAS SOCIALES",
	"VIAJES",
	"REGALOS",
	// Mascotas
	"MASCOTAS",
	// Misceláneo
	"TEST",
	FallbackCategory,
}

// BaseCategories returns a copy of the seed catalog.
func BaseCategories() []string {
	out := make([]string, len(baseCategories))
	copy(out, baseCategories)
	return out
}
