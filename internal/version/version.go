package version

// VERSION holds the server's version
const VERSION = "0.3.1"
