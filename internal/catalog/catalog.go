// Package catalog holds the static registry of automatable capabilities.
// The catalog is loaded once and never mutated, so concurrent reads are
// safe by construction.
package catalog

import (
	"strings"

	"github.com/kanlogic/readiness-engine-go/internal/domain"
)

// Catalog is a read-only lookup of automation modules keyed by id.
type Catalog struct {
	entries []domain.CatalogEntry
	byID    map[string]int
}

// New builds the built-in module catalog.
func New() *Catalog {
	c := &Catalog{entries: entries()}
	c.byID = make(map[string]int, len(c.entries))
	for i, e := range c.entries {
		c.byID[e.ID] = i
	}
	return c
}

// All returns every catalog entry in declaration order.
func (c *Catalog) All() []domain.CatalogEntry {
	out := make([]domain.CatalogEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Get returns the entry for id, or ErrNotFound for an unknown id.
func (c *Catalog) Get(id string) (domain.CatalogEntry, error) {
	i, ok := c.byID[id]
	if !ok {
		return domain.CatalogEntry{}, &domain.ErrNotFound{Resource: "module", ID: id}
	}
	return c.entries[i], nil
}

// FilterByTag returns, in declaration order, the entries whose tag set
// contains the keyword.
func (c *Catalog) FilterByTag(keyword string) []domain.CatalogEntry {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	var out []domain.CatalogEntry
	for _, e := range c.entries {
		for _, tag := range e.Tags {
			if tag == keyword {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// DefaultsFor returns the default module-id set for an industry. Unknown
// industries map to the global default set.
func (c *Catalog) DefaultsFor(industry string) []string {
	key := strings.ToLower(strings.TrimSpace(industry))
	if ids, ok := industryDefaults[key]; ok {
		return append([]string(nil), ids...)
	}
	return append([]string(nil), globalDefaults...)
}

// industryDefaults maps a lowercase industry name to its default module
// subset, used when an intake carries no usable keywords.
var industryDefaults = map[string][]string{
	"retail": {
		"whatsapp_sales_bot",
		"shopify_erp_sync",
		"smart_invoicing",
		"ops_dashboards",
	},
	"ecommerce": {
		"whatsapp_sales_bot",
		"shopify_erp_sync",
		"smart_invoicing",
		"ops_dashboards",
	},
	"restaurantes": {
		"whatsapp_sales_bot",
		"support_chatbot",
		"ops_dashboards",
	},
	"salud": {
		"support_chatbot",
		"admin_efficiency",
		"smart_documents",
	},
	"servicios": {
		"whatsapp_sales_bot",
		"smart_documents",
		"crm_cleanup",
	},
	"manufactura": {
		"bank_reconciliation",
		"ops_dashboards",
		"smart_invoicing",
	},
}

var globalDefaults = []string{
	"admin_efficiency",
	"smart_documents",
	"ops_dashboards",
}

func entries() []domain.CatalogEntry {
	return []domain.CatalogEntry{
		{
			ID:               "whatsapp_sales_bot",
			Name:             "Bot de ventas para WhatsApp",
			Description:      "Captura leads, responde FAQs, califica prospectos y agenda llamadas.",
			Category:         "ventas",
			Tags:             []string{"whatsapp", "ventas", "leads", "mensaje", "mensajes", "seguimiento", "cotizacion", "citas", "agenda", "reservas", "pedidos"},
			HoursCoefficient: 6,
			Tier:             domain.TierMedium,
			Integrations:     []string{"WhatsApp", "CRM"},
			EstimatedWeeks:   3,
		},
		{
			ID:               "support_chatbot",
			Name:             "Chatbot de atencion al cliente",
			Description:      "Responde preguntas frecuentes en web o WhatsApp y escala a un humano.",
			Category:         "soporte",
			Tags:             []string{"chatbot", "soporte", "clientes", "atencion", "faq", "mensajes", "citas", "agenda"},
			HoursCoefficient: 5,
			Tier:             domain.TierMedium,
			Integrations:     []string{"Webchat", "WhatsApp", "CRM"},
			EstimatedWeeks:   3,
		},
		{
			ID:               "bank_reconciliation",
			Name:             "Conciliacion bancaria automatica",
			Description:      "Cruza movimientos bancarios con facturas y reportes contables.",
			Category:         "finanzas",
			Tags:             []string{"banco", "conciliacion", "contabilidad", "tesoreria", "finanzas"},
			HoursCoefficient: 4,
			Tier:             domain.TierMedium,
			Integrations:     []string{"Banco", "ERP", "Contabilidad"},
			EstimatedWeeks:   3,
		},
		{
			ID:               "shopify_erp_sync",
			Name:             "Sincronizacion Shopify-ERP",
			Description:      "Actualiza inventario, pedidos y clientes entre Shopify y ERP.",
			Category:         "operaciones",
			Tags:             []string{"shopify", "inventario", "erp", "stock", "pedido", "pedidos"},
			HoursCoefficient: 5,
			Tier:             domain.TierLarge,
			Integrations:     []string{"Shopify", "ERP"},
			EstimatedWeeks:   4,
		},
		{
			ID:               "smart_invoicing",
			Name:             "Facturacion inteligente",
			Description:      "Genera facturas, valida datos y envia comprobantes automaticamente.",
			Category:         "finanzas",
			Tags:             []string{"factura", "facturas", "facturacion", "comprobante", "sat", "cfdi"},
			HoursCoefficient: 3,
			Tier:             domain.TierSmall,
			Integrations:     []string{"Facturacion", "Correo"},
			EstimatedWeeks:   2,
		},
		{
			ID:               "ops_dashboards",
			Name:             "Reportes y dashboards operativos",
			Description:      "Convierte datos dispersos en dashboards semanales con alertas.",
			Category:         "administracion",
			Tags:             []string{"reporte", "reportes", "dashboard", "kpi", "excel", "indicadores"},
			HoursCoefficient: 3,
			Tier:             domain.TierSmall,
			Integrations:     []string{"BI", "Google Sheets"},
			EstimatedWeeks:   2,
		},
		{
			ID:               "ticket_routing",
			Name:             "Ruteo de tickets de soporte",
			Description:      "Clasifica tickets y asigna SLA automaticamente.",
			Category:         "soporte",
			Tags:             []string{"soporte", "ticket", "tickets", "servicio", "sla", "helpdesk"},
			HoursCoefficient: 3,
			Tier:             domain.TierSmall,
			Integrations:     []string{"Helpdesk"},
			EstimatedWeeks:   2,
		},
		{
			ID:               "crm_cleanup",
			Name:             "Enriquecimiento y limpieza de CRM",
			Description:      "Depura duplicados y completa datos de clientes.",
			Category:         "ventas",
			Tags:             []string{"crm", "duplicados", "limpieza", "datos", "prospectos"},
			HoursCoefficient: 2,
			Tier:             domain.TierSmall,
			Integrations:     []string{"CRM"},
			EstimatedWeeks:   1,
		},
		{
			ID:               "staff_onboarding",
			Name:             "Onboarding de personal",
			Description:      "Automatiza checklist, accesos y capacitaciones.",
			Category:         "rh",
			Tags:             []string{"onboarding", "rh", "personal", "nomina", "capacitacion"},
			HoursCoefficient: 2,
			Tier:             domain.TierSmall,
			Integrations:     []string{"HR", "Correo"},
			EstimatedWeeks:   1,
		},
		{
			ID:               "email_automation",
			Name:             "Automatizacion de correo",
			Description:      "Clasifica, etiqueta y responde correos repetitivos.",
			Category:         "administracion",
			Tags:             []string{"correo", "correos", "email", "bandeja", "seguimiento"},
			HoursCoefficient: 3,
			Tier:             domain.TierSmall,
			Integrations:     []string{"Correo"},
			EstimatedWeeks:   2,
		},
		{
			ID:               "admin_efficiency",
			Name:             "Eficiencia administrativa (archivos y carpetas)",
			Description:      "Organiza carpetas, archivos y versiones para que nada se pierda.",
			Category:         "administracion",
			Tags:             []string{"carpeta", "carpetas", "archivo", "archivos", "documento", "documentos", "organizar", "papeleo", "drive"},
			HoursCoefficient: 4,
			Tier:             domain.TierMedium,
			Integrations:     []string{"Drive", "OneDrive", "Dropbox"},
			EstimatedWeeks:   2,
		},
		{
			ID:               "smart_documents",
			Name:             "Generador de documentos inteligente",
			Description:      "Genera contratos, cotizaciones y recibos en PDF sin copiar y pegar.",
			Category:         "administracion",
			Tags:             []string{"contrato", "contratos", "cotizacion", "cotizaciones", "pdf", "recibo", "firma", "firmar"},
			HoursCoefficient: 3,
			Tier:             domain.TierSmall,
			Integrations:     []string{"PDF", "Correo"},
			EstimatedWeeks:   2,
		},
	}
}
