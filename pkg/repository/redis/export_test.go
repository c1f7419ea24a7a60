package redis

var (
	Encode = encode
	Decode = decode
)
