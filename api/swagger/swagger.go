package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Gym Ops API",
        "description": "Operations intelligence for gym management: revenue, retention, occupancy and renewal insights.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Insights", "description": "Revenue, retention, forecast and renewal analytics"},
        {"name": "System", "description": "Process metrics"}
    ],
    "paths": {
        "/insights": {
            "get": {
                "tags": ["Insights"],
                "summary": "Full insights report",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/InsightsEnvelope"}},
                    "429": {"description": "Too many requests", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/insights/summary": {
            "get": {
                "tags": ["Insights"],
                "summary": "Headline KPIs",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/insights/revenue-opportunities": {
            "get": {
                "tags": ["Insights"],
                "summary": "Members qualifying for a plan upgrade",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/insights/retention-risks": {
            "get": {
                "tags": ["Insights"],
                "summary": "Members at risk of churning",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/insights/churn-forecast": {
            "get": {
                "tags": ["Insights"],
                "summary": "Projected churn for the next months",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/insights/revenue-forecast": {
            "get": {
                "tags": ["Insights"],
                "summary": "Projected billed revenue for the next months",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/insights/peak-hours": {
            "get": {
                "tags": ["Insights"],
                "summary": "Modeled weekly occupancy curve",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/insights/renewal-offers": {
            "get": {
                "tags": ["Insights"],
                "summary": "Personalised offers for upcoming renewals",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/insights/export": {
            "get": {
                "tags": ["Insights"],
                "summary": "Download one insights section",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "section", "in": "query", "type": "string", "required": true,
                     "enum": ["revenue-opportunities", "retention-risks", "churn-forecast", "revenue-forecast", "peak-hours", "renewal-offers"]},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "400": {"description": "Invalid section or format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/insights/refresh": {
            "post": {
                "tags": ["Insights"],
                "summary": "Queue a report rebuild",
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Refresh queue unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/system/metrics": {
            "get": {
                "tags": ["System"],
                "summary": "Process level metrics snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "InsightsSummary": {
            "type": "object",
            "properties": {
                "totalPotentialRevenue": {"type": "number"},
                "highRiskMembers": {"type": "integer"},
                "avgChurnRate": {"type": "number"},
                "nextMonthRevenue": {"type": "number"},
                "upcomingRenewals": {"type": "integer"}
            }
        },
        "InsightsReport": {
            "type": "object",
            "properties": {
                "reportId": {"type": "string"},
                "generatedAt": {"type": "string", "format": "date-time"},
                "occupancyModel": {"type": "string"},
                "revenueOpportunities": {"type": "array", "items": {"type": "object"}},
                "retentionRisks": {"type": "array", "items": {"type": "object"}},
                "churnForecast": {"type": "array", "items": {"type": "object"}},
                "revenueForecast": {"type": "array", "items": {"type": "object"}},
                "peakHourForecast": {"type": "array", "items": {"type": "object"}},
                "renewalOffers": {"type": "array", "items": {"type": "object"}},
                "summary": {"$ref": "#/definitions/InsightsSummary"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "InsightsEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/InsightsReport"},
                "meta": {"type": "object"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
