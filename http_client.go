package main

import (
	"net/http"
	"time"
)

const externalHTTPTimeout = 60 * time.Second

var externalHTTPClient = &http.Client{
	Timeout: externalHTTPTimeout,
}
