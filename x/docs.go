/*
Package x contains the extensions of the custody engine.

Extensions implement Handlers, Decorators and Executors that are combined by
the app package into a running engine. This package itself only defines the
authentication abstraction every extension relies on to learn who certified
a request.
*/
package x
