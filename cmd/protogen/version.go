package main

// version is bumped manually; there is no embedded VERSION file in this
// tree.
const version = "0.1.0"
