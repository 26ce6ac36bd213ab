package model

// WeatherResult is the provider's JSON body, passed through without reshaping.
type WeatherResult map[string]interface{}

// WeatherstackError is the error envelope weatherstack returns, often with HTTP 200:
//
//	{"success": false, "error": {"code": 615, "type": "request_failed", "info": "..."}}
type WeatherstackError struct {
	Success *bool `json:"success"`
	Error   *struct {
		Code int    `json:"code"`
		Type string `json:"type"`
		Info string `json:"info"`
	} `json:"error"`
}

// Failed reports whether the envelope describes a provider-side failure.
func (e WeatherstackError) Failed() bool {
	if e.Error != nil {
		return true
	}
	return e.Success != nil && !*e.Success
}
