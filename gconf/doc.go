/*
Package gconf implements a configuration store intended to be used as a global,
in-database configuration.

Every extension stores at most one configuration object under the "_c:<pkg>"
key. A configuration is loaded from the genesis file by InitConfig and can
later be patched by its owner with UpdateConfigurationHandler.

Not being able to load a configuration is a critical condition for the
extension that needs it. Callers must surface the error and not fall back to
defaults silently.
*/
package gconf
