package utils

// ResponseData es el sobre JSON comun de la API. Status no se serializa.
type ResponseData struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Results any    `json:"results,omitempty"`
}
