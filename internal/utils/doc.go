// Package utils validates values the host UI sends to the shell API.
package utils
