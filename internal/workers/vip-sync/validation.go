package vipsync

import "vip-relay/internal/common/validation"

// envelopeSchema accepts any Intercom notification shape the relay might see;
// only the fields it reads are typed.
var envelopeSchema = validation.MustCompile(`{
	"type": "object",
	"properties": {
		"topic": {"type": ["string", "null"]},
		"data": {
			"type": ["object", "null"],
			"properties": {
				"item": {
					"type": ["object", "null"],
					"properties": {
						"tag": {
							"type": ["object", "null"],
							"properties": {"name": {"type": ["string", "null"]}}
						},
						"contact": {
							"type": ["object", "null"],
							"properties": {
								"email": {"type": ["string", "null"]},
								"name": {"type": ["string", "null"]}
							}
						}
					}
				}
			}
		}
	}
}`)

func GetInputSchema() *validation.Schema {
	return envelopeSchema
}
