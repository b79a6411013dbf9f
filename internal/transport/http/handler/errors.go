package handler

const errInternalServer = "Internal server error"
